// Package topic provides lightweight lexical detection of the
// information slots a question must cover before retrieval is worth
// running: the act being asked about, its time frame, and the concrete
// situation it happens in.
package topic

import "strings"

// Slot names one required piece of context in a question.
type Slot string

const (
	SlotAct       Slot = "act"
	SlotTimeFrame Slot = "timeframe"
	SlotSituation Slot = "situation"
)

// Slots lists every slot in the order clarifying questions are asked.
var Slots = []Slot{SlotAct, SlotTimeFrame, SlotSituation}

// keywordBuckets maps each slot to surface forms that mark it as
// covered. Buckets mix French, Wolof and English because users switch
// freely between the three.
var keywordBuckets = map[Slot][]string{
	SlotAct: {
		// worship and ritual acts
		"prier", "prière", "salat", "julli", "jeûner", "jeûne", "woor", "ramadan",
		"zakat", "asaka", "ablution", "wudu", "hajj", "pèlerinage", "aumône",
		"mariage", "takk", "divorce", "héritage", "ndono", "sacrifice", "tabaski",
		"pray", "prayer", "fast", "fasting", "charity", "marriage", "inheritance",
		"acheter", "vendre", "prêt", "riba", "intérêt", "loan", "interest",
	},
	SlotTimeFrame: {
		"pendant", "avant", "après", "durant", "quand", "lorsque", "aujourd'hui",
		"demain", "hier", "matin", "soir", "nuit", "fajr", "dhuhr", "asr",
		"maghrib", "isha", "ramadan", "vendredi", "ajuma", "mois", "heure",
		"during", "before", "after", "when", "while", "today", "tonight", "month",
	},
	SlotSituation: {
		"voyage", "voyageur", "tukki", "malade", "maladie", "wopp", "enceinte",
		"travail", "liggéey", "école", "mosquée", "jumma", "maison", "famille",
		"travel", "traveling", "sick", "illness", "pregnant", "work", "school",
		"mosque", "home", "seul", "groupe", "imam", "retard", "oubli", "oublié",
		"forgot", "missed", "raté",
	},
}

// Covered reports which slots the accumulated question text already fills.
func Covered(text string) map[Slot]bool {
	normalized := strings.ToLower(text)
	covered := make(map[Slot]bool, len(Slots))
	for slot, keywords := range keywordBuckets {
		for _, word := range keywords {
			if strings.Contains(normalized, word) {
				covered[slot] = true
				break
			}
		}
	}
	return covered
}

// Missing returns the slots not yet covered by the text, in ask order.
func Missing(text string) []Slot {
	covered := Covered(text)
	var missing []Slot
	for _, slot := range Slots {
		if !covered[slot] {
			missing = append(missing, slot)
		}
	}
	return missing
}

var questionsByLanguage = map[string]map[Slot]string{
	"fr": {
		SlotAct:       "Pouvez-vous préciser de quel acte ou de quelle pratique il s'agit exactement ?",
		SlotTimeFrame: "À quel moment cela se passe-t-il (pendant le Ramadan, une prière précise, une période donnée) ?",
		SlotSituation: "Dans quelle situation vous trouvez-vous (en voyage, malade, au travail, etc.) ?",
	},
	"en": {
		SlotAct:       "Could you specify which act or practice your question is about?",
		SlotTimeFrame: "When does this take place (during Ramadan, a specific prayer, a particular period)?",
		SlotSituation: "What is your situation (traveling, sick, at work, etc.)?",
	},
	"wo": {
		SlotAct:       "Ndax mën nga leeral ban jëf walla ban jaamu nga bëgg laaj?",
		SlotTimeFrame: "Kañ la loolu di xew (ci weeru koor, ci benn julli, walla beneen jamono)?",
		SlotSituation: "Ci ban anam nga nekk (ci tukki, wopp nga, ci liggéey, añs)?",
	},
}

// Question returns the clarifying question for a slot in the given
// language, falling back to French when the language is unknown.
func Question(slot Slot, language string) string {
	questions, ok := questionsByLanguage[language]
	if !ok {
		questions = questionsByLanguage["fr"]
	}
	return questions[slot]
}
