package keywords

// commonStopwords are generic English words that carry no topical signal.
var commonStopwords = []string{
	"a", "an", "and", "are", "as", "at", "be", "by", "for", "from",
	"has", "he", "in", "is", "it", "its", "of", "on", "that", "the",
	"to", "was", "will", "with", "or", "but", "not", "can", "had",
	"been", "have", "were", "when", "where", "which", "who", "why",
	"how", "what", "this", "these", "those", "their", "them", "they",
	"we", "you", "your", "our", "all", "each", "if", "no", "some",
	"such", "than", "then", "there", "into", "through", "during",
	"before", "after", "above", "below", "between", "under", "again",
	"further", "once", "here", "both", "few", "more", "most", "other",
	"only", "own", "same", "so", "too", "very", "any", "every",
	"either", "neither", "because", "while", "until", "since", "about",
}

// academicStopwords are boilerplate terms that appear in most paper
// titles regardless of topic.
var academicStopwords = []string{
	"paper", "study", "research", "approach", "method", "methods",
	"novel", "new", "proposed", "using", "based", "via", "toward",
	"towards", "analysis", "framework", "system", "technique", "model",
	"application", "applications", "case", "efficient", "effective",
	"improved", "improving", "improvement", "enhanced", "enhancing",
	"algorithm", "algorithms", "evaluation", "experimental", "results",
	"performance", "comparison", "survey", "review", "overview",
	"introduction", "conclusion", "future", "work", "works", "problem",
	"problems", "solution", "solutions", "issue", "issues", "challenge",
	"challenges", "general", "specific", "particular", "various", "different",
	"large", "small", "scale", "high", "low", "fast", "slow", "better",
	"best", "optimal", "optimized", "optimization", "scalable", "robust",
}

// keepTerms look generic but are real topic markers in this corpus, so
// they override the stopword lists.
var keepTerms = []string{
	"learning", "network", "networks", "data", "mining", "graph", "graphs",
	"neural", "deep", "machine", "detection", "classification", "clustering",
	"prediction", "recommendation", "knowledge", "information", "social",
	"time", "series", "temporal", "spatial", "visual", "text", "image",
	"video", "language", "natural", "processing", "understanding", "generation",
	"privacy", "security", "adversarial", "reinforcement", "supervised",
	"unsupervised", "semi", "federated", "distributed", "online", "offline",
	"real", "anomaly", "outlier", "attention", "transformer", "embedding",
}

// buildStopwords combines the default lists with any extras, minus the
// keep terms.
func buildStopwords(extra []string) map[string]struct{} {
	set := make(map[string]struct{}, len(commonStopwords)+len(academicStopwords)+len(extra))
	for _, w := range commonStopwords {
		set[w] = struct{}{}
	}
	for _, w := range academicStopwords {
		set[w] = struct{}{}
	}
	for _, w := range extra {
		set[w] = struct{}{}
	}
	for _, w := range keepTerms {
		delete(set, w)
	}
	return set
}
