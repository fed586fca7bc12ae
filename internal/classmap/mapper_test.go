package classmap

import "testing"

var foreignObjects = []string{"bottle", "cup", "knife", "backpack", "handbag", "scissors"}

func TestMap_ForeignObjectsAnyCasing(t *testing.T) {
	m := New(DefaultAlias, foreignObjects)

	tests := []string{
		"bottle", "BOTTLE", "Bottle",
		"cup", "cUp",
		"knife", "Knife",
		"backpack", "BackPack",
		"handbag", "HANDBAG",
		"scissors", "Scissors",
	}

	for _, raw := range tests {
		if got := m.Map(raw); got != DefaultAlias {
			t.Errorf("Map(%q) = %q, expected %q", raw, got, DefaultAlias)
		}
	}
}

func TestMap_OtherLabelsPassThrough(t *testing.T) {
	m := New(DefaultAlias, foreignObjects)

	tests := []string{"person", "Person", "dog", "cell phone", "", "bottles", " bottle"}

	for _, raw := range tests {
		if got := m.Map(raw); got != raw {
			t.Errorf("Map(%q) = %q, expected unchanged", raw, got)
		}
	}
}

func TestNew_NormalizesConfiguredClasses(t *testing.T) {
	m := New("", []string{" Bottle ", "", "CUP"})

	if m.Alias() != DefaultAlias {
		t.Errorf("Expected default alias, got %q", m.Alias())
	}
	if got := m.Map("bottle"); got != DefaultAlias {
		t.Errorf("Map(bottle) = %q", got)
	}
	if got := m.Map("Cup"); got != DefaultAlias {
		t.Errorf("Map(Cup) = %q", got)
	}
}

func TestIsAlert(t *testing.T) {
	m := New("Intruder", []string{"knife"})

	if !m.IsAlert(m.Map("KNIFE")) {
		t.Error("Mapped knife should be an alert label")
	}
	if m.IsAlert("person") {
		t.Error("person should not be an alert label")
	}
	// A raw label that happens to equal the alias is still the alias.
	if !m.IsAlert(m.Map("Intruder")) {
		t.Error("alias passed through should still be an alert label")
	}
}
