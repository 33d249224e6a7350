package queries

// Query is one planned search with its fixed rank. Ranks drive the
// deterministic merge order when fetches run concurrently.
type Query struct {
	Text string
	Rank int
}

// Intent groups in plan order. Known-title probes go first because they are
// the cheapest high-precision wins; broad era and style sweeps follow.
var (
	knownTitleQueries = []string{
		"Casablanca 1942",
		"Citizen Kane 1941",
		"Metropolis 1927",
		"Nosferatu 1922",
		"The Cabinet of Dr Caligari",
		"The General Buster Keaton",
		"Modern Times Chaplin",
		"The 39 Steps Hitchcock",
		"The Maltese Falcon",
		"Sunset Boulevard",
		"The Third Man",
	}
	eraQueries = []string{
		"1920s movies",
		"1930s movies",
		"1940s movies",
		"1950s movies",
		"1960s movies",
	}
	styleQueries = []string{
		"classic films",
		"silent films",
		"vintage cinema",
		"old movies",
		"black and white films",
	}
	genreQueries = []string{
		"old horror movies",
		"film noir",
		"classic western",
		"vintage comedy",
		"old sci-fi films",
	}
	generalQueries = []string{
		"public domain films",
		"classic hollywood",
		"golden age cinema",
	}
)

// Plan returns the ordered query set. A non-empty override list replaces the
// built-in plan wholesale. Ranks are assigned by position.
func Plan(override []string) []Query {
	texts := override
	if len(texts) == 0 {
		texts = defaultTexts()
	}
	plan := make([]Query, 0, len(texts))
	for i, text := range texts {
		plan = append(plan, Query{Text: text, Rank: i})
	}
	return plan
}

func defaultTexts() []string {
	texts := make([]string, 0,
		len(knownTitleQueries)+len(eraQueries)+len(styleQueries)+len(genreQueries)+len(generalQueries))
	texts = append(texts, knownTitleQueries...)
	texts = append(texts, eraQueries...)
	texts = append(texts, styleQueries...)
	texts = append(texts, genreQueries...)
	texts = append(texts, generalQueries...)
	return texts
}
