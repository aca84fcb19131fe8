package model

import (
	"testing"
	"time"

	"github.com/bytedance/sonic"
)

func TestDateJSON(t *testing.T) {
	var c Card
	in := `{"id":1,"list":2,"title":"t","description":"","due_date":"2024-06-30T00:00:00Z","order":0,"created_at":"2024-05-01T10:00:00Z"}`
	if err := sonic.ConfigStd.Unmarshal([]byte(in), &c); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if c.DueDate == nil || c.DueDate.String() != "2024-06-30" {
		t.Fatalf("unexpected due date %v", c.DueDate)
	}

	out, err := sonic.ConfigStd.Marshal(CardInput{DueDate: c.DueDate})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `{"due_date":"2024-06-30"}` {
		t.Fatalf("unexpected body %s", out)
	}

	var d Date
	if err := d.UnmarshalJSON([]byte("null")); err != nil || !d.IsZero() {
		t.Fatalf("null date: %v %v", d, err)
	}
	if err := d.UnmarshalJSON([]byte(`"30/06/2024"`)); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestDateOverdue(t *testing.T) {
	d, err := ParseDate(" 2024-06-30 ")
	if err != nil {
		t.Fatal(err)
	}
	if d.Overdue(time.Date(2024, 6, 30, 23, 0, 0, 0, time.UTC)) {
		t.Fatal("due today is not overdue")
	}
	if !d.Overdue(time.Date(2024, 7, 1, 0, 1, 0, 0, time.UTC)) {
		t.Fatal("expected overdue")
	}
}

func TestRoles(t *testing.T) {
	cases := []struct {
		role           Role
		valid, canEdit bool
	}{
		{RoleOwner, true, true},
		{RoleAdmin, true, true},
		{RoleMember, true, false},
		{Role("guest"), false, false},
	}
	for _, tc := range cases {
		if tc.role.Valid() != tc.valid || tc.role.CanEdit() != tc.canEdit {
			t.Errorf("%s: valid=%v canEdit=%v", tc.role, tc.role.Valid(), tc.role.CanEdit())
		}
	}
}

func TestDisplayName(t *testing.T) {
	if n := (User{Username: "ana", FirstName: "Ana", LastName: "Lima"}).DisplayName(); n != "Ana Lima" {
		t.Fatalf("got %q", n)
	}
	if n := (User{Username: "ana", FirstName: "Ana"}).DisplayName(); n != "Ana" {
		t.Fatalf("got %q", n)
	}
	if n := (User{Username: "ana", LastName: "Lima"}).DisplayName(); n != "ana" {
		t.Fatalf("got %q", n)
	}
}

func TestBoardLookupAndClone(t *testing.T) {
	b := Board{ID: 1, Lists: []List{
		{ID: 10, Cards: []Card{{ID: 100, Labels: []int{1}}, {ID: 101}}},
		{ID: 11, Cards: []Card{{ID: 102}}},
	}, Members: []Member{{User: User{ID: 5}, Role: RoleAdmin}}}

	if l, i := b.FindCard(102); l == nil || l.ID != 11 || i != 0 {
		t.Fatalf("FindCard: %v %d", l, i)
	}
	if l, i := b.FindCard(999); l != nil || i != -1 {
		t.Fatal("unknown card found")
	}
	if b.ListIndex(11) != 1 || b.FindList(12) != nil {
		t.Fatal("list lookup")
	}
	if m, ok := b.Membership(5); !ok || m.Role != RoleAdmin {
		t.Fatal("membership")
	}

	c := b.Clone()
	c.Lists[0].Cards[0].Labels[0] = 9
	c.Lists[0].Cards = c.Lists[0].Cards[:1]
	c.Members[0].Role = RoleMember
	if b.Lists[0].Cards[0].Labels[0] != 1 || len(b.Lists[0].Cards) != 2 || b.Members[0].Role != RoleAdmin {
		t.Fatal("clone shares state with the original")
	}
}

func TestProgress(t *testing.T) {
	c := Card{Checklist: []ChecklistItem{{Completed: true}, {}, {Completed: true}}}
	if done, total := c.Progress(); done != 2 || total != 3 {
		t.Fatalf("progress %d/%d", done, total)
	}
}

func TestPresetLabels(t *testing.T) {
	if l, ok := PresetLabelByKey("bug"); !ok || l.Color != "red" {
		t.Fatalf("bug preset: %+v", l)
	}
	if l, ok := PresetLabelByKey("nope"); ok || l.Color != "gray" || l.Name != "nope" {
		t.Fatalf("fallback preset: %+v", l)
	}
	all := PresetLabels()
	all[0].Name = "changed"
	if PresetLabels()[0].Name == "changed" {
		t.Fatal("catalog is mutable")
	}
}

func TestLabelByID(t *testing.T) {
	labels := []Label{{ID: 3, Name: "Bug", Color: "red"}}
	if l := LabelByID(labels, 3); l.Name != "Bug" || l.Color != "red" {
		t.Fatalf("known label: %+v", l)
	}
	if l := LabelByID(labels, 9); l.ID != 9 || l.Name != "#9" || l.Color != "gray" {
		t.Fatalf("unknown label: %+v", l)
	}
	if l := LabelByID(nil, 1); l.Name != "#1" {
		t.Fatalf("no labels: %+v", l)
	}
}
