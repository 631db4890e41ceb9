package command

import "strings"

// Intent is a command the assistant can execute without the backend.
type Intent string

const (
	IntentTemperature Intent = "temperature"
	IntentHumidity    Intent = "humidity"
	IntentDistance    Intent = "distance"
	IntentMotion      Intent = "motion"
	IntentGas         Intent = "gas"
	IntentLastScan    Intent = "last_scan"
	IntentScan        Intent = "scan"
	IntentLook        Intent = "look"
	IntentEmail       Intent = "email"
	IntentStatus      Intent = "status"
	IntentSmallTalk   Intent = "small_talk"
)

// intentRule binds trigger phrases to an intent. Rules are evaluated in
// order and the first match wins, so more specific phrases must come
// before the generic ones they contain ("last scan" before "scan").
type intentRule struct {
	intent   Intent
	triggers []string
}

// Triggers include Hindi and Hinglish phrasings alongside English, since
// users mix both.
var intentRules = []intentRule{
	{IntentTemperature, []string{"temperature", "tapman", "kitna garam", "how hot", "how cold", "how warm"}},
	{IntentHumidity, []string{"humidity", "nami", "how humid", "moisture"}},
	{IntentDistance, []string{"distance", "how far", "doori", "kitna dur", "obstacle ahead"}},
	{IntentMotion, []string{"motion", "movement", "anyone there", "koi hai", "someone there"}},
	{IntentGas, []string{"gas", "smoke", "alcohol", "air quality", "leak"}},
	{IntentLastScan, []string{"last scan", "previous scan", "scan result", "pichla scan"}},
	{IntentScan, []string{"scan", "look around", "survey", "charo taraf dekho", "check surroundings"}},
	{IntentLook, []string{"look left", "look right", "look ahead", "look forward", "look center",
		"turn left", "turn right", "baye dekho", "daye dekho", "samne dekho"}},
	{IntentEmail, []string{"email", "mail", "inbox", "unread messages"}},
	{IntentStatus, []string{"status", "system report", "how is everything", "sab theek"}},
	{IntentSmallTalk, []string{"hello", "hey", "hi", "namaste", "namaskar",
		"thanks", "thank you", "dhanyavad", "shukriya",
		"how are you", "kaise ho",
		"your name", "who are you", "tumhara naam",
		"what time", "samay kya", "kitne baje",
		"what is the date", "what day", "aaj ka din", "tarikh",
		"bye", "goodbye", "alvida", "good night"}},
}

// onlineKeywords mark questions that only make sense with fresh data from
// the internet. They skip the intent table even if a trigger word appears
// somewhere in the sentence.
var onlineKeywords = []string{
	"news", "weather", "forecast", "search", "google",
	"stock", "price of", "score", "match", "latest", "current affairs",
}

// MatchIntent finds the first rule whose trigger occurs in the normalized
// text. Returns the matched trigger for routing diagnostics.
func MatchIntent(normalized string) (Intent, string, bool) {
	if normalized == "" {
		return "", "", false
	}
	if RequiresOnline(normalized) {
		return "", "", false
	}
	// Word-boundary matching: "gas" must not fire inside "gastronomy".
	padded := " " + normalized + " "
	for _, rule := range intentRules {
		for _, trigger := range rule.triggers {
			if strings.Contains(padded, " "+trigger+" ") {
				return rule.intent, trigger, true
			}
		}
	}
	return "", "", false
}

// RequiresOnline reports whether the question needs live internet data.
func RequiresOnline(normalized string) bool {
	for _, kw := range onlineKeywords {
		if strings.Contains(normalized, kw) {
			return true
		}
	}
	return false
}
