package profile

import (
	"testing"

	"healthgate/internal/upstream"
)

func completeUser() upstream.User {
	return upstream.User{
		ID:    7,
		Name:  "Dana",
		Email: "dana@example.com",
		Age:   30,
		Health: upstream.Health{
			Weight: 70,
			Height: 175,
			Sex:    "female",
			Allergy: upstream.Allergy{
				Allergy:     true,
				AllergyType: []string{"peanut"},
			},
			Activate: upstream.Activate{ActivateType: "moderate"},
		},
		Goals: upstream.Goals{GoalsType: "maintain"},
	}
}

func TestIsComplete(t *testing.T) {
	if !IsComplete(completeUser()) {
		t.Fatalf("expected fully populated user to be complete")
	}

	cases := []struct {
		name   string
		mutate func(*upstream.User)
	}{
		{"missing age", func(u *upstream.User) { u.Age = 0 }},
		{"missing weight", func(u *upstream.User) { u.Health.Weight = 0 }},
		{"missing height", func(u *upstream.User) { u.Health.Height = 0 }},
		{"missing sex", func(u *upstream.User) { u.Health.Sex = "" }},
		{"missing activity", func(u *upstream.User) { u.Health.Activate.ActivateType = "" }},
		{"missing goal", func(u *upstream.User) { u.Goals.GoalsType = "" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			u := completeUser()
			tc.mutate(&u)
			if IsComplete(u) {
				t.Fatalf("expected user to be incomplete")
			}
		})
	}
}

func TestBMI(t *testing.T) {
	if got := BMI(70, 175); got != 22.9 {
		t.Fatalf("expected BMI 22.9, got %v", got)
	}
	if got := BMI(0, 175); got != 0 {
		t.Fatalf("expected 0 for missing weight, got %v", got)
	}
	if got := BMI(70, 0); got != 0 {
		t.Fatalf("expected 0 for missing height, got %v", got)
	}
}

func TestProgressPercent(t *testing.T) {
	if got := ProgressPercent(500, 2000); got != 25 {
		t.Fatalf("expected 25, got %v", got)
	}
	if got := ProgressPercent(500, 0); got != 0 {
		t.Fatalf("expected 0 for unset target, got %v", got)
	}
	if got := ProgressPercent(2500, 2000); got != 125 {
		t.Fatalf("expected values above 100 to pass through, got %v", got)
	}
}

func TestDiffUnchangedFormIsEmpty(t *testing.T) {
	u := completeUser()
	update := Diff(u, FormFromUser(u))
	if !update.IsEmpty() {
		t.Fatalf("expected unchanged form to produce an empty update: %+v", update)
	}
}

func TestDiffOnlyChangedFieldsSet(t *testing.T) {
	u := completeUser()
	form := FormFromUser(u)
	form.Name = "Dana Q"
	form.Weight = 68.5

	update := Diff(u, form)

	if update.Name == nil || *update.Name != "Dana Q" {
		t.Fatalf("expected name in update, got %+v", update.Name)
	}
	if update.Age != nil {
		t.Fatalf("expected unchanged age to be absent")
	}
	if update.Health == nil || update.Health.Weight == nil || *update.Health.Weight != 68.5 {
		t.Fatalf("expected weight in health update, got %+v", update.Health)
	}
	if update.Health.Height != nil || update.Health.Sex != nil || update.Health.Allergy != nil || update.Health.Activate != nil {
		t.Fatalf("expected untouched health fields to be absent, got %+v", update.Health)
	}
	if update.Goals != nil {
		t.Fatalf("expected unchanged goals to be absent")
	}
}

func TestDiffPasswordOnlyWhenTyped(t *testing.T) {
	u := completeUser()
	form := FormFromUser(u)

	if update := Diff(u, form); update.Password != nil {
		t.Fatalf("expected blank password to be omitted")
	}

	form.Password = "new-secret"
	update := Diff(u, form)
	if update.Password == nil || *update.Password != "new-secret" {
		t.Fatalf("expected typed password to be sent")
	}
}

func TestDiffAllergyChanges(t *testing.T) {
	u := completeUser()

	form := FormFromUser(u)
	form.AllergyType = []string{"peanut", "shellfish"}
	update := Diff(u, form)
	if update.Health == nil || update.Health.Allergy == nil {
		t.Fatalf("expected allergy update when types change")
	}
	if got := *update.Health.Allergy.AllergyType; len(got) != 2 {
		t.Fatalf("expected both allergy types, got %v", got)
	}

	// nil and empty slices mean the same thing on the wire
	u.Health.Allergy = upstream.Allergy{Allergy: false, AllergyType: nil}
	form = FormFromUser(u)
	form.AllergyType = []string{}
	if update := Diff(u, form); update.Health != nil {
		t.Fatalf("expected nil vs empty allergy list to be no change, got %+v", update.Health)
	}
}

func TestDiffGoalChange(t *testing.T) {
	u := completeUser()
	form := FormFromUser(u)
	form.GoalsType = "lose_weight"

	update := Diff(u, form)
	if update.Goals == nil || update.Goals.GoalsType == nil || *update.Goals.GoalsType != "lose_weight" {
		t.Fatalf("expected goals update, got %+v", update.Goals)
	}
}
