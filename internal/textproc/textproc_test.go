package textproc

import "testing"

func TestProcessDropsShortAndLongTokens(t *testing.T) {
	p := New()
	tokens := p.Process("a bb "+string(make([]byte, 60)), "title", DefaultOptions())
	for _, tok := range tokens {
		if len(tok.Text) < 2 || len(tok.Text) > 50 {
			t.Errorf("token %q violates [2,50] length bound", tok.Text)
		}
	}
}

func TestProcessClassifiesErrorCode(t *testing.T) {
	p := New()
	tokens := p.Process("S0C7 Data Exception in batch job", "title", DefaultOptions())
	if len(tokens) == 0 {
		t.Fatal("expected tokens")
	}
	if tokens[0].Type != TypeError {
		t.Errorf("expected S0C7 classified as error, got %s", tokens[0].Type)
	}
	if tokens[0].Boost != 3.0 {
		t.Errorf("expected error boost 3.0, got %v", tokens[0].Boost)
	}
}

func TestProcessClassifiesCodeKeyword(t *testing.T) {
	p := New()
	tokens := p.Process("check the VSAM cluster status", "problem", DefaultOptions())
	var found bool
	for _, tok := range tokens {
		if tok.Normalized == "vsam" {
			found = true
			if tok.Type != TypeCode {
				t.Errorf("expected vsam classified as code, got %s", tok.Type)
			}
			if tok.Boost != 1.8 {
				t.Errorf("expected code boost 1.8, got %v", tok.Boost)
			}
		}
	}
	if !found {
		t.Fatal("expected to find vsam token")
	}
}

func TestProcessSkipsStemmingForShortErrorAndCodeTokens(t *testing.T) {
	p := New()
	tokens := p.Process("U4038 abend in running job", "solution", DefaultOptions())
	for _, tok := range tokens {
		if tok.Type == TypeError || tok.Type == TypeCode || len(tok.Text) < 3 {
			if tok.Stemmed != tok.Text {
				t.Errorf("expected %s token unstemmed, got stem %q for %q", tok.Type, tok.Stemmed, tok.Text)
			}
		}
	}
}

func TestProcessOverflowTruncatesDeterministically(t *testing.T) {
	p := New()
	var text string
	for i := 0; i < maxTokensPerField+50; i++ {
		text += "word "
	}
	tokens := p.Process(text, "problem", DefaultOptions())
	if len(tokens) != maxTokensPerField {
		t.Errorf("expected truncation at %d tokens, got %d", maxTokensPerField, len(tokens))
	}
}

func TestTokenizeQueryPreservesDottedIdentifiers(t *testing.T) {
	words := TokenizeQuery("SYS1.PROCLIB job_name my-dataset")
	want := []string{"sys1.proclib", "job_name", "my-dataset"}
	if len(words) != len(want) {
		t.Fatalf("expected %v, got %v", want, words)
	}
	for i := range want {
		if words[i] != want[i] {
			t.Errorf("expected %q at %d, got %q", want[i], i, words[i])
		}
	}
}

func TestExtractSpecial(t *testing.T) {
	special := ExtractSpecial("S0C7 abend while running DB2 bind on zos")
	if len(special.ErrorCodes) == 0 {
		t.Error("expected an error code to be extracted")
	}
	foundDB2 := false
	for _, s := range special.SystemNames {
		if s == "db2" {
			foundDB2 = true
		}
	}
	if !foundDB2 {
		t.Error("expected db2 recognized as a system name")
	}
}

func TestEmptyInputNeverFails(t *testing.T) {
	p := New()
	if tokens := p.Process("", "title", DefaultOptions()); tokens != nil {
		t.Errorf("expected nil tokens for empty input, got %v", tokens)
	}
}
