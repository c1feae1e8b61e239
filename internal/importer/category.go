package importer

import "strings"

// categoryKeywords assigns a catalog category to a product by the first
// keyword found in its name or OFF categories. Order matters: "health drink"
// must lose to "drink" the same way it does in the published catalog.
var categoryKeywords = []struct {
	keyword  string
	category string
}{
	{"biscuit", "biscuits"}, {"cookie", "biscuits"}, {"wafer", "biscuits"}, {"rusk", "biscuits"},
	{"chips", "namkeen"}, {"snack", "namkeen"}, {"namkeen", "namkeen"}, {"crisp", "namkeen"},
	{"kurkure", "namkeen"}, {"bhujia", "namkeen"}, {"mixture", "namkeen"}, {"papad", "namkeen"},
	{"juice", "drinks"}, {"drink", "drinks"}, {"soda", "drinks"}, {"cola", "drinks"},
	{"beverage", "drinks"}, {"water", "drinks"}, {"tea", "drinks"}, {"coffee", "drinks"},
	{"milk", "dairy"}, {"butter", "dairy"}, {"cheese", "dairy"}, {"curd", "dairy"},
	{"paneer", "dairy"}, {"yogurt", "dairy"}, {"ghee", "dairy"}, {"cream", "dairy"},
	{"noodle", "ready-to-eat"}, {"instant", "ready-to-eat"}, {"soup", "ready-to-eat"},
	{"pasta", "ready-to-eat"}, {"sauce", "ready-to-eat"}, {"pickle", "ready-to-eat"},
	{"chocolate", "meetha"}, {"candy", "meetha"}, {"sweet", "meetha"}, {"toffee", "meetha"},
	{"mithai", "meetha"}, {"ladoo", "meetha"}, {"barfi", "meetha"},
	{"cereal", "nashta"}, {"oat", "nashta"}, {"muesli", "nashta"}, {"breakfast", "nashta"},
	{"cornflake", "nashta"}, {"granola", "nashta"}, {"poha", "nashta"},
	{"health drink", "bachon-ke-liye"}, {"malt", "bachon-ke-liye"}, {"bournvita", "bachon-ke-liye"},
	{"horlicks", "bachon-ke-liye"}, {"complan", "bachon-ke-liye"}, {"boost", "bachon-ke-liye"},
	{"baby", "bachon-ke-liye"}, {"infant", "bachon-ke-liye"},
	{"bread", "nashta"}, {"jam", "nashta"}, {"spread", "nashta"}, {"honey", "nashta"},
	{"oil", "cooking"}, {"masala", "cooking"}, {"spice", "cooking"}, {"atta", "cooking"},
	{"dal", "cooking"}, {"rice", "cooking"}, {"flour", "cooking"},
}

const otherCategory = "other"

// Category returns the catalog category slug for the product.
func (p *OFFProduct) Category() string {
	combined := strings.ToLower(p.Name() + " " + p.Categories)
	for _, kw := range categoryKeywords {
		if strings.Contains(combined, kw.keyword) {
			return kw.category
		}
	}
	return otherCategory
}
