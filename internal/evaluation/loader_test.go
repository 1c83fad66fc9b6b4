package evaluation

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadGoldenCases_JSONFile(t *testing.T) {
	content := `[
		{"id": "c1", "symptoms": "fever, chills, sweating", "category": "general", "expected_diseases": ["Malaria"], "difficulty": "easy"},
		{"id": "c2", "symptoms": "chest pain on exertion", "category": "cardiovascular", "expected_diseases": ["Angina"], "expected_specialist": "Cardiologist", "difficulty": "medium"}
	]`
	path := writeTempFile(t, "cases.json", content)

	cases, err := LoadGoldenCases(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cases) != 2 {
		t.Fatalf("expected 2 cases, got %d", len(cases))
	}
	if cases[0].ID != "c1" {
		t.Errorf("expected id c1, got %s", cases[0].ID)
	}
	if cases[1].Category != CategoryCardiovascular {
		t.Errorf("expected category cardiovascular, got %s", cases[1].Category)
	}
	if cases[1].ExpectedSpecialist != "Cardiologist" {
		t.Errorf("expected specialist Cardiologist, got %s", cases[1].ExpectedSpecialist)
	}
}

func TestLoadGoldenCases_YAMLFile(t *testing.T) {
	content := `
- id: c1
  symptoms: itchy red rash on both arms
  category: dermatological
  expected_diseases: [Contact Dermatitis, Eczema]
  expected_specialist: Dermatologist
  difficulty: easy
`
	path := writeTempFile(t, "cases.yaml", content)

	cases, err := LoadGoldenCases(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cases) != 1 {
		t.Fatalf("expected 1 case, got %d", len(cases))
	}
	if len(cases[0].ExpectedDiseases) != 2 {
		t.Errorf("expected 2 diseases, got %d", len(cases[0].ExpectedDiseases))
	}
	if cases[0].Category != CategoryDermatological {
		t.Errorf("expected category dermatological, got %s", cases[0].Category)
	}
}

func TestLoadGoldenCases_InvalidFile(t *testing.T) {
	_, err := LoadGoldenCases("/nonexistent/path.json")
	if err == nil {
		t.Error("expected error for nonexistent file")
	}
}

func TestLoadGoldenCases_InvalidJSON(t *testing.T) {
	path := writeTempFile(t, "cases.json", `not valid json`)
	_, err := LoadGoldenCases(path)
	if err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestLoadGoldenCases_EmptyArray(t *testing.T) {
	path := writeTempFile(t, "cases.json", `[]`)
	cases, err := LoadGoldenCases(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cases) != 0 {
		t.Errorf("expected 0 cases, got %d", len(cases))
	}
}

func TestCategory_IsValid(t *testing.T) {
	tests := []struct {
		category Category
		valid    bool
	}{
		{CategoryRespiratory, true},
		{CategoryGastrointestinal, true},
		{CategoryCardiovascular, true},
		{CategoryNeurological, true},
		{CategoryDermatological, true},
		{CategoryGeneral, true},
		{Category("unknown"), false},
		{Category(""), false},
	}
	for _, tt := range tests {
		got := tt.category.IsValid()
		if got != tt.valid {
			t.Errorf("Category(%q).IsValid() = %v, want %v", tt.category, got, tt.valid)
		}
	}
}

func TestValidateGoldenCases(t *testing.T) {
	valid := GoldenCase{ID: "c1", Symptoms: "fever", Category: CategoryGeneral, ExpectedDiseases: []string{"Malaria"}, Difficulty: "easy"}

	tests := []struct {
		name   string
		mutate func(c *GoldenCase)
	}{
		{name: "missing id", mutate: func(c *GoldenCase) { c.ID = "" }},
		{name: "blank symptoms", mutate: func(c *GoldenCase) { c.Symptoms = "  " }},
		{name: "no expected diseases", mutate: func(c *GoldenCase) { c.ExpectedDiseases = nil }},
		{name: "invalid category", mutate: func(c *GoldenCase) { c.Category = Category("bad") }},
		{name: "invalid difficulty", mutate: func(c *GoldenCase) { c.Difficulty = "impossible" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.mutate(&c)
			if err := ValidateGoldenCases([]GoldenCase{c}); err == nil {
				t.Errorf("expected validation error for %s", tt.name)
			}
		})
	}

	if err := ValidateGoldenCases([]GoldenCase{valid}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidateGoldenCases_DuplicateIDs(t *testing.T) {
	cases := []GoldenCase{
		{ID: "c1", Symptoms: "fever", Category: CategoryGeneral, ExpectedDiseases: []string{"Malaria"}, Difficulty: "easy"},
		{ID: "c1", Symptoms: "cough", Category: CategoryRespiratory, ExpectedDiseases: []string{"Bronchitis"}, Difficulty: "easy"},
	}
	err := ValidateGoldenCases(cases)
	if err == nil {
		t.Error("expected validation error for duplicate IDs")
	}
}

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	return path
}
