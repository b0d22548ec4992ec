package repositories

import (
	"reflect"
	"testing"

	"github.com/pokepacks/pokepacks/internal/domain/catalog"
)

func TestCountPulls(t *testing.T) {
	cards := []catalog.Card{{ID: "b"}, {ID: "a"}, {ID: "b"}, {ID: "c"}, {ID: "b"}}
	want := []pull{{"a", 1}, {"b", 3}, {"c", 1}}
	if got := countPulls(cards); !reflect.DeepEqual(got, want) {
		t.Errorf("countPulls() = %v, want %v", got, want)
	}
	if got := countPulls(nil); len(got) != 0 {
		t.Errorf("countPulls(nil) = %v, want empty", got)
	}
}
