package chat

import "testing"

func TestLogAppendAssignsIncreasingSequence(t *testing.T) {
	l := NewLog()

	a := l.Append("Rin", "one")
	b := l.Append("Kai", "two")

	if a.Seq >= b.Seq {
		t.Fatalf("expected increasing sequence, got %d then %d", a.Seq, b.Seq)
	}
	if l.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", l.Len())
	}

	msgs := l.Messages()
	if msgs[0].Body != "one" || msgs[1].Body != "two" {
		t.Fatalf("unexpected order: %+v", msgs)
	}
}

func TestLogMessagesReturnsCopy(t *testing.T) {
	l := NewLog()
	l.Append("Rin", "original")

	msgs := l.Messages()
	msgs[0].Body = "tampered"

	if got := l.Messages()[0].Body; got != "original" {
		t.Fatalf("log entry mutated through the returned slice: %q", got)
	}
}
