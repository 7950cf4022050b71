package nlp

var stopWords = map[string]bool{
	"the": true, "and": true, "for": true, "are": true, "but": true, "not": true,
	"you": true, "all": true, "any": true, "can": true, "had": true, "her": true,
	"was": true, "one": true, "our": true, "out": true, "has": true, "have": true,
	"his": true, "how": true, "its": true, "may": true, "new": true, "now": true,
	"see": true, "way": true, "who": true, "did": true, "get": true, "got": true,
	"let": true, "put": true, "say": true, "she": true, "too": true, "use": true,
	"that": true, "this": true, "with": true, "from": true, "they": true, "been": true,
	"were": true, "what": true, "when": true, "will": true, "would": true, "could": true,
	"should": true, "there": true, "their": true, "them": true, "then": true, "than": true,
	"into": true, "also": true, "very": true, "just": true, "some": true, "more": true,
	"much": true, "does": true, "done": true, "being": true, "here": true, "over": true,
	"make": true, "made": true, "like": true, "well": true, "work": true, "works": true,
	"intern": true, "interns": true, "thing": true, "things": true, "lot": true,
	"is": true, "be": true, "do": true,
}
