package index

import "math"

// IDF is log10(n/df), the inverse document frequency of a term found in df
// of n documents. A term present in every document has IDF 0.
func IDF(n, df int) float64 {
	if n == 0 || df == 0 {
		return 0
	}
	return math.Log10(float64(n) / float64(df))
}

// TFIDF is the log-scaled term frequency weight (1 + log10(count)) * idf.
func TFIDF(count int, idf float64) float64 {
	if count <= 0 {
		return 0
	}
	return (1 + math.Log10(float64(count))) * idf
}
