package dictionary

import "strings"

// defaultWords is the built-in development word list. Production deployments
// load the full list from the dictionary_words table instead.
var defaultWords = []string{
	"AA", "AB", "AD", "AE", "AG", "AH", "AI", "AL", "AM", "AN", "AR", "AS", "AT", "AW", "AX", "AY",
	"BA", "BE", "BI", "BO", "BY",
	"DO", "ED", "EF", "EH", "EL", "EM", "EN", "ER", "ES", "ET", "EX",
	"FA", "GO", "HA", "HE", "HI", "HM", "HO", "ID", "IF", "IN", "IS", "IT", "JO", "KA", "KI", "LA", "LI", "LO",
	"MA", "ME", "MI", "MM", "MO", "MU", "MY", "NA", "NE", "NO", "NU", "OD", "OE", "OF", "OH", "OI", "OM", "ON",
	"OP", "OR", "OS", "OW", "OX", "OY",
	"PA", "PE", "PI", "QI", "RE", "SH", "SI", "SO", "TA", "TI", "TO", "UH", "UM", "UN", "UP", "US", "UT",
	"WE", "WO", "XI", "XU", "YA", "YE", "YO",
	"HELLO", "WORLD", "SCRABBLE", "TILE", "BOARD", "WORD", "PLAY", "GAME", "POINT", "QUIZ", "JAZZ", "FUZZ",
	"PUZZLE", "BLANK",
	"CAT", "DOG", "FISH", "BIRD", "HOUSE", "MOUSE", "TABLE", "CHAIR", "ZOO", "ECHO", "RHYTHM",
}

// Service answers word-membership lookups. Lookups are case-insensitive.
// The service is immutable after construction and safe for concurrent use.
type Service struct {
	words map[string]struct{}
}

// NewService builds a service over the given words, or the built-in list
// when words is empty.
func NewService(words []string) *Service {
	if len(words) == 0 {
		words = defaultWords
	}
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[strings.ToUpper(w)] = struct{}{}
	}
	return &Service{words: set}
}

// IsValid reports whether word is in the dictionary.
func (s *Service) IsValid(word string) bool {
	if word == "" {
		return false
	}
	_, ok := s.words[strings.ToUpper(word)]
	return ok
}

// Len returns the dictionary size.
func (s *Service) Len() int { return len(s.words) }
