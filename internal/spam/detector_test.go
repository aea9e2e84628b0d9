package spam

import (
	"reflect"
	"strings"
	"testing"
)

func containsReason(reasons []string, want string) bool {
	for _, r := range reasons {
		if r == want {
			return true
		}
	}
	return false
}

func TestDetect_CleanComment(t *testing.T) {
	result := Detect("Great article, thanks!", "Jane")

	if result.IsSpam {
		t.Errorf("Expected clean comment, got spam with reasons %v", result.Reasons)
	}
	if result.Score != 0 {
		t.Errorf("Expected score 0, got %d", result.Score)
	}
	if result.Reasons == nil || len(result.Reasons) != 0 {
		t.Errorf("Expected empty non-nil reasons, got %#v", result.Reasons)
	}
}

func TestDetect_EmptyContent(t *testing.T) {
	result := Detect("", "Jane")

	if result.Score < WeightHigh {
		t.Errorf("Expected score >= %d, got %d", WeightHigh, result.Score)
	}
	if !containsReason(result.Reasons, "Linguistic analysis issues (score: 5)") {
		t.Errorf("Expected linguistic reason, got %v", result.Reasons)
	}
	if !result.IsSpam {
		t.Errorf("Expected empty body to be spam, score %d", result.Score)
	}
}

func TestDetect_SuspiciousAuthor(t *testing.T) {
	result := Detect("Great article, thanks!", "admin")

	if result.Score != WeightHigh {
		t.Errorf("Expected score %d, got %d (%v)", WeightHigh, result.Score, result.Reasons)
	}
	if !containsReason(result.Reasons, "Author name issues (score: 5)") {
		t.Errorf("Expected author reason, got %v", result.Reasons)
	}
	if result.IsSpam {
		t.Error("Author name alone should stay below the threshold")
	}
}

func TestDetect_MultipleURLs(t *testing.T) {
	result := Detect("see http://example.com and http://example.org", "Jane")

	if result.Score < WeightHigh {
		t.Errorf("Expected score >= %d, got %d", WeightHigh, result.Score)
	}
	if !containsReason(result.Reasons, "URL analysis issues (score: 5)") {
		t.Errorf("Expected URL reason, got %v", result.Reasons)
	}
}

func TestDetect_CriticalKeyword(t *testing.T) {
	result := Detect("I like viagra", "Jane")

	if result.Score < WeightCritical {
		t.Errorf("Expected score >= %d, got %d", WeightCritical, result.Score)
	}
	if !result.IsSpam {
		t.Error("Expected spam verdict")
	}
}

func TestDetect_ObviousSpam(t *testing.T) {
	result := Detect("WIN $$$ CLICK HERE NOW!!! http://bit.ly/x http://tinyurl.com/y", "Jane")

	if !result.IsSpam {
		t.Fatalf("Expected spam, got score %d (%v)", result.Score, result.Reasons)
	}
	for _, want := range []string{
		"High-risk pattern detected",
		"URL analysis issues (score: 11)",
	} {
		if !containsReason(result.Reasons, want) {
			t.Errorf("Expected reason %q in %v", want, result.Reasons)
		}
	}
}

func TestDetectContent_SkipsAuthor(t *testing.T) {
	body := "Best price for coverage like this."

	named := Detect(body, "Anonymous")
	if !named.IsSpam {
		t.Fatalf("Expected named suspicious author to tip the score, got %d (%v)", named.Score, named.Reasons)
	}

	result := DetectContent(body)
	if result.IsSpam {
		t.Errorf("Expected body alone below threshold, got %d (%v)", result.Score, result.Reasons)
	}
	if result.Score != Detect(body, "Jane").Score {
		t.Errorf("Expected body-only score to match a neutral author, got %d", result.Score)
	}
	for _, r := range result.Reasons {
		if strings.HasPrefix(r, "Author name issues") {
			t.Errorf("Author analyzer must not run, got %v", result.Reasons)
		}
	}

	if !DetectContent("buy viagra now").IsSpam {
		t.Error("Body indicators must still count")
	}
}

func TestDetect_Deterministic(t *testing.T) {
	inputs := [][2]string{
		{"WIN $$$ CLICK HERE NOW!!! http://bit.ly/x http://tinyurl.com/y", "Jane"},
		{"casino casino viagra deal", "seller99"},
		{"", ""},
	}

	for _, in := range inputs {
		first := Detect(in[0], in[1])
		for i := 0; i < 10; i++ {
			if got := Detect(in[0], in[1]); !reflect.DeepEqual(first, got) {
				t.Fatalf("Detect(%q, %q) not deterministic: %v vs %v", in[0], in[1], first, got)
			}
		}
	}
}

func TestDetect_VerdictMatchesThreshold(t *testing.T) {
	inputs := [][2]string{
		{"", ""},
		{"ok", "J"},
		{"Thanks for sharing this.", "Sam"},
		{"Nice read!!!", "reader42"},
		{strings.Repeat("spam ", 50), "bot"},
		{"\x00\x01\x02", " "},
		{strings.Repeat("x", 20000), strings.Repeat("9", 200)},
	}

	for _, in := range inputs {
		result := Detect(in[0], in[1])
		if result.Score < 0 {
			t.Errorf("Detect(%q, %q) score negative: %d", in[0], in[1], result.Score)
		}
		if result.IsSpam != (result.Score >= Threshold) {
			t.Errorf("Detect(%q, %q) verdict %v inconsistent with score %d", in[0], in[1], result.IsSpam, result.Score)
		}
	}
}

func TestDetect_ConcurrentUse(t *testing.T) {
	done := make(chan Result, 8)
	for i := 0; i < 8; i++ {
		go func() {
			done <- Detect("buy viagra now http://bit.ly/x", "dealer")
		}()
	}

	first := <-done
	for i := 1; i < 8; i++ {
		if got := <-done; !reflect.DeepEqual(first, got) {
			t.Fatalf("concurrent results differ: %v vs %v", first, got)
		}
	}
}
