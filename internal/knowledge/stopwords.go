package knowledge

var stopwords = map[string]struct{}{}

func init() {
	for _, w := range []string{
		"the", "a", "an", "and", "or", "but", "not", "is", "are", "was",
		"were", "be", "been", "being", "have", "has", "had", "do", "does",
		"did", "will", "would", "can", "could", "should", "may", "might",
		"i", "you", "he", "she", "it", "we", "they", "me", "him", "her",
		"us", "them", "my", "your", "his", "its", "our", "their", "this",
		"that", "these", "those", "what", "which", "who", "whom", "how",
		"when", "where", "why", "to", "of", "in", "on", "at", "by", "for",
		"with", "about", "from", "into", "please", "get",
	} {
		stopwords[w] = struct{}{}
	}
}
