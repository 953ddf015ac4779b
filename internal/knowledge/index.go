package knowledge

import (
	"math"
	"sort"
	"strings"
	"unicode"
)

// Record is one question/answer pair from the corpus. Immutable after
// the corpus load.
type Record struct {
	Question string `yaml:"q"`
	Answer   string `yaml:"a"`
}

// Match is a scored record; Score is cosine similarity in [0,1].
type Match struct {
	Record Record
	Score  float64
}

// Index is a term-weighted view over a fixed corpus. Build once, query
// from any number of goroutines.
type Index struct {
	records []Record
	vectors []map[string]float64
	idf     map[string]float64
}

// Tokenize lower-cases the text and splits on non-alphanumeric
// boundaries.
func Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func termFrequencies(tokens []string) map[string]float64 {
	tf := make(map[string]float64, len(tokens))
	for _, t := range tokens {
		tf[t]++
	}
	return tf
}

// BuildIndex computes L2-normalized TF-IDF vectors for the records.
// idf(t) = log((N+1)/(df(t)+1)) + 1, which keeps every weight positive.
func BuildIndex(records []Record) *Index {
	n := float64(len(records))

	df := make(map[string]float64)
	tfs := make([]map[string]float64, len(records))
	for i, rec := range records {
		tf := termFrequencies(Tokenize(rec.Question))
		tfs[i] = tf
		for term := range tf {
			df[term]++
		}
	}

	idf := make(map[string]float64, len(df))
	for term, d := range df {
		idf[term] = math.Log((n+1)/(d+1)) + 1
	}

	vectors := make([]map[string]float64, len(records))
	for i, tf := range tfs {
		vectors[i] = weightAndNormalize(tf, idf)
	}

	return &Index{records: records, vectors: vectors, idf: idf}
}

func weightAndNormalize(tf, idf map[string]float64) map[string]float64 {
	vec := make(map[string]float64, len(tf))
	var norm float64
	for term, f := range tf {
		w := f * idf[term]
		vec[term] = w
		norm += w * w
	}
	if norm == 0 {
		return vec
	}
	norm = math.Sqrt(norm)
	for term := range vec {
		vec[term] /= norm
	}
	return vec
}

// Query scores every record against the text and returns matches in
// descending score order. Ties keep corpus order (first-loaded wins).
// A query with no recognized tokens yields an empty result.
func (ix *Index) Query(text string) []Match {
	tokens := Tokenize(text)
	if len(tokens) == 0 || len(ix.records) == 0 {
		return nil
	}

	// Unknown terms carry the out-of-corpus idf of log(N+1)+1, same as
	// a term with df=0. They contribute to the query norm but match
	// nothing, which is exactly the penalty we want.
	qtf := termFrequencies(tokens)
	qvec := make(map[string]float64, len(qtf))
	var norm float64
	for term, f := range qtf {
		idf, ok := ix.idf[term]
		if !ok {
			idf = math.Log(float64(len(ix.records))+1) + 1
		}
		w := f * idf
		qvec[term] = w
		norm += w * w
	}
	if norm == 0 {
		return nil
	}
	norm = math.Sqrt(norm)

	matches := make([]Match, 0, len(ix.records))
	for i, vec := range ix.vectors {
		var dot float64
		for term, qw := range qvec {
			if rw, ok := vec[term]; ok {
				dot += (qw / norm) * rw
			}
		}
		matches = append(matches, Match{Record: ix.records[i], Score: dot})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	return matches
}

// Len returns the corpus size.
func (ix *Index) Len() int {
	return len(ix.records)
}
