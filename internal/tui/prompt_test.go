package tui

import "testing"

func TestPromptSubmit(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		required bool
		wantMsg  bool
		want     string
	}{
		{"trimmed value", "  urgent  ", true, true, "urgent"},
		{"required empty", "   ", true, false, ""},
		{"optional empty", "", false, true, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newPrompt()
			p.Open(promptTag, 42, "Add tag", "tag name", tt.value, tt.required)

			_, cmd := p.Update(press("enter"))
			if !tt.wantMsg {
				if cmd != nil {
					t.Fatalf("enter returned %T, want nil cmd", cmd())
				}
				return
			}
			if cmd == nil {
				t.Fatal("enter returned nil cmd")
			}
			msg, ok := cmd().(promptSubmitMsg)
			if !ok {
				t.Fatalf("cmd() = %T, want promptSubmitMsg", cmd())
			}
			if msg.value != tt.want || msg.id != 42 || msg.purpose != promptTag {
				t.Errorf("submit = %+v, want value %q id 42 purpose tag", msg, tt.want)
			}
		})
	}
}

func TestPromptEscCloses(t *testing.T) {
	p := newPrompt()
	p.Open(promptSearch, 0, "Search", "", "", false)
	_, cmd := p.Update(press("esc"))
	if cmd == nil {
		t.Fatal("esc returned nil cmd")
	}
	if _, ok := cmd().(closePromptMsg); !ok {
		t.Errorf("cmd() = %T, want closePromptMsg", cmd())
	}

	p.Close()
	if p.IsActive() {
		t.Error("IsActive() = true after Close")
	}
	if _, cmd := p.Update(press("enter")); cmd != nil {
		t.Error("closed prompt should ignore keys")
	}
}

func TestConfirm(t *testing.T) {
	var c confirmModel
	c.Open("Delete entry 5?", quarantineDeleteMsg{entryID: 5})

	_, cmd := c.Update(press("n"))
	if cmd == nil {
		t.Fatal("n returned nil cmd")
	}
	if _, ok := cmd().(closeConfirmMsg); !ok {
		t.Errorf("n: cmd() = %T, want closeConfirmMsg", cmd())
	}

	if _, cmd := c.Update(press("y")); cmd == nil {
		t.Error("y returned nil cmd")
	}

	if _, cmd := c.Update(press("z")); cmd != nil {
		t.Error("unbound key should be ignored")
	}

	c.Close()
	if c.IsActive() || c.onYes != nil {
		t.Error("Close() should clear the pending action")
	}
}
