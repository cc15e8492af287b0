package chat

import "testing"

func TestExtractJSONPlain(t *testing.T) {
	out, err := extractJSON(`{"message":"ok"}`)
	if err != nil {
		t.Fatalf("extractJSON: %v", err)
	}
	if out != `{"message":"ok"}` {
		t.Fatalf("unexpected span: %s", out)
	}
}

func TestExtractJSONWithSurroundingProse(t *testing.T) {
	out, err := extractJSON(`Sure! Here you go: {"message":"ok","n":1} hope that helps`)
	if err != nil {
		t.Fatalf("extractJSON: %v", err)
	}
	if out != `{"message":"ok","n":1}` {
		t.Fatalf("unexpected span: %s", out)
	}
}

func TestExtractJSONFenced(t *testing.T) {
	raw := "```json\n{\"message\":\"ok\"}\n```"
	out, err := extractJSON(raw)
	if err != nil {
		t.Fatalf("extractJSON: %v", err)
	}
	if out != `{"message":"ok"}` {
		t.Fatalf("unexpected span: %s", out)
	}
}

func TestExtractJSONIgnoresBracesInStrings(t *testing.T) {
	out, err := extractJSON(`{"message":"a } b { c","ok":true}`)
	if err != nil {
		t.Fatalf("extractJSON: %v", err)
	}
	if out != `{"message":"a } b { c","ok":true}` {
		t.Fatalf("unexpected span: %s", out)
	}
}

func TestExtractJSONNoObject(t *testing.T) {
	if _, err := extractJSON("sorry, I cannot help with that"); err == nil {
		t.Fatalf("expected error for prose-only reply")
	}
	if _, err := extractJSON(`{"unterminated": "`); err == nil {
		t.Fatalf("expected error for unbalanced object")
	}
}
