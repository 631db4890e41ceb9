package command

import "testing"

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"  Jarvis, what's the Temperature?  ": "what s the temperature",
		"HELLO!":                              "hello",
		"hey jarvis scan":                     "scan",
		"jarvis":                              "",
		"kya haal hai":                        "kya haal hai",
	}
	for in, want := range cases {
		if got := Normalize(in); got != want {
			t.Errorf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMatchIntentTable(t *testing.T) {
	cases := []struct {
		text string
		want Intent
	}{
		{"what is the temperature", IntentTemperature},
		{"kitna garam hai", IntentTemperature},
		{"how humid is it", IntentHumidity},
		{"how far is the wall", IntentDistance},
		{"is anyone there", IntentMotion},
		{"do you smell gas", IntentGas},
		{"scan the room", IntentScan},
		{"look around please", IntentScan},
		{"show me the last scan", IntentLastScan},
		{"look left", IntentLook},
		{"daye dekho", IntentLook},
		{"any email for me", IntentEmail},
		{"status report", IntentStatus},
		{"hello there", IntentSmallTalk},
		{"what time is it", IntentSmallTalk},
	}
	for _, c := range cases {
		got, _, ok := MatchIntent(Normalize(c.text))
		if !ok {
			t.Errorf("MatchIntent(%q) found nothing, want %s", c.text, c.want)
			continue
		}
		if got != c.want {
			t.Errorf("MatchIntent(%q) = %s, want %s", c.text, got, c.want)
		}
	}
}

func TestLastScanBeforeScan(t *testing.T) {
	// "last scan" contains "scan"; the specific rule must win.
	got, trigger, ok := MatchIntent("what did the last scan show")
	if !ok || got != IntentLastScan {
		t.Fatalf("got %s (trigger %q), want last_scan", got, trigger)
	}
}

func TestMatchIntentWordBoundary(t *testing.T) {
	if _, _, ok := MatchIntent("tell me about gastronomy"); ok {
		t.Error("gas must not match inside gastronomy")
	}
}

func TestOnlineKeywordsSkipTable(t *testing.T) {
	// "weather" questions need live data even though they sound like
	// temperature questions.
	if _, _, ok := MatchIntent("what is the weather forecast"); ok {
		t.Error("weather question should not match a local intent")
	}
	if !RequiresOnline("any news about the match score") {
		t.Error("news question should require online")
	}
}

func TestUnmatchedFreeText(t *testing.T) {
	if _, _, ok := MatchIntent("explain black holes to me"); ok {
		t.Error("free conversation should not match an intent")
	}
}
