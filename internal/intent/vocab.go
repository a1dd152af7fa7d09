package intent

// #region intent-keys
const (
	Unknown       = "unknown"
	AskLocation   = "askLocation"
	AskDirections = "askDirections"
	AskCost       = "askCost"
	AskTime       = "askTime"
	Interpreter   = "interpreter"
	Need          = "need"
	Want          = "want"
	Get           = "get"
	Help          = "help"
	Greet         = "greet"
	Goodbye       = "goodbye"
	Thanks        = "thanks"
	Apologize     = "apologize"
	ConfirmYes    = "confirmYes"
	ConfirmNo     = "confirmNo"
)

// #endregion intent-keys

// #region triggers

// trigger maps a set of single-token signs to one intent.
type trigger struct {
	tokens []string
	intent string
}

// triggers is consulted in declared order for each token.
var triggers = []trigger{
	{[]string{"INTERPRETER"}, Interpreter},
	{[]string{"WHERE"}, AskLocation},
	{[]string{"LEFT", "RIGHT", "STRAIGHT", "UPSTAIRS", "DOWNSTAIRS"}, AskDirections},
	{[]string{"COST", "PRICE", "PAY", "MONEY"}, AskCost},
	{[]string{"WHEN"}, AskTime},
	{[]string{"NEED"}, Need},
	{[]string{"WANT"}, Want},
	{[]string{"GET"}, Get},
	{[]string{"HELP"}, Help},
	{[]string{"HI", "HELLO", "HEY"}, Greet},
	{[]string{"BYE", "GOODBYE"}, Goodbye},
	{[]string{"THANKS", "THANK", "THANK-YOU"}, Thanks},
	{[]string{"SORRY"}, Apologize},
	{[]string{"YES"}, ConfirmYes},
	{[]string{"NO"}, ConfirmNo},
}

// #endregion triggers

// #region dictionaries

var interrogatives = map[string]string{
	"WHERE": "Where", "WHAT": "What", "WHO": "Who", "WHEN": "When",
	"WHY": "Why", "HOW": "How", "WHICH": "Which",
}

var directions = map[string]string{
	"LEFT": "left", "RIGHT": "right", "STRAIGHT": "straight", "FORWARD": "straight",
	"UP": "up", "DOWN": "down", "UPSTAIRS": "upstairs", "DOWNSTAIRS": "downstairs",
	"NORTH": "north", "SOUTH": "south", "EAST": "east", "WEST": "west",
}

var places = map[string]string{
	"BATHROOM": "the restroom", "RESTROOM": "the restroom", "TOILET": "the restroom",
	"EXIT": "the exit", "ENTRANCE": "the entrance",
	"FRONTDESK": "the front desk", "FRONT-DESK": "the front desk", "DESK": "the front desk",
	"RECEPTION": "reception",
	"ELEVATOR":  "the elevator", "LIFT": "the elevator",
	"STAIRS": "the stairs", "LOBBY": "the lobby", "HALL": "the hallway", "HALLWAY": "the hallway",
	"OFFICE": "the office", "ROOM": "the room", "BUILDING": "the building",
	"SECURITY": "security", "INFORMATION": "information", "INFO": "information",
	"HELPDESK": "the help desk", "HELP-DESK": "the help desk",
	"CLINIC": "the clinic", "HOSPITAL": "the hospital", "PHARMACY": "the pharmacy",
	"ER":      "the emergency room",
	"PARKING": "parking", "GARAGE": "the parking garage",
	"BUS": "the bus stop", "TRAIN": "the train station", "STATION": "the station",
	"GATE": "the gate", "TERMINAL": "the terminal",
	"CAFE": "the cafe", "CAFETERIA": "the cafeteria", "RESTAURANT": "the restaurant",
}

var nouns = map[string]string{
	"APPLE": "apple", "BANANA": "banana", "WATER": "water", "FOOD": "food", "DRINK": "a drink",
	"WIFI": "Wi-Fi", "INTERNET": "internet", "PASSWORD": "the password",
	"CHARGER": "a charger", "PHONE": "my phone", "LAPTOP": "my laptop",
	"TICKET": "a ticket", "RECEIPT": "a receipt", "FORM": "a form", "ID": "my ID",
	"WALLET": "my wallet", "BAG": "my bag",
	"HELP": "help", "ASSISTANCE": "assistance",
	"INTERPRETER": "an ASL interpreter", "TRANSLATOR": "a translator", "CAPTIONS": "captions",
	"DOCTOR": "a doctor", "NURSE": "a nurse", "MEDICINE": "medicine",
}

// #endregion dictionaries

// #region signal-and-stop

// signalWords never count as content: every intent trigger plus every
// interrogative and direction sign.
var signalWords = buildSignalWords()

// stopWords are pronouns, articles and politeness fillers.
var stopWords = map[string]bool{
	"I": true, "ME": true, "MY": true, "YOU": true, "YOUR": true, "WE": true,
	"THE": true, "A": true, "AN": true, "TO": true, "FOR": true, "WITH": true,
	"PLEASE": true, "PLS": true, "NOW": true,
}

func buildSignalWords() map[string]bool {
	set := make(map[string]bool)
	for _, tr := range triggers {
		for _, tok := range tr.tokens {
			set[tok] = true
		}
	}
	for tok := range interrogatives {
		set[tok] = true
	}
	for tok := range directions {
		set[tok] = true
	}
	return set
}

// #endregion signal-and-stop
