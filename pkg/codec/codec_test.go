package codec

import (
	"reflect"
	"testing"
)

// The header blob and trailer written by one codec must decode with the
// other, since readers and writers may be built with different defaults.
func TestCodecsAreWireCompatible(t *testing.T) {
	std := JSON{}
	gj := GoJSON{}
	value := []any{"float64", []int64{20, 8}}

	stdBytes, err := std.Marshal(value)
	if err != nil {
		t.Fatalf("JSON.Marshal failed: %v", err)
	}
	goBytes, err := gj.Marshal(value)
	if err != nil {
		t.Fatalf("GoJSON.Marshal failed: %v", err)
	}
	if string(stdBytes) != string(goBytes) {
		t.Fatalf("codecs disagree on wire form: %s vs %s", stdBytes, goBytes)
	}

	var viaStd, viaGo [2]Raw
	if err := std.Unmarshal(goBytes, &viaStd); err != nil {
		t.Fatalf("JSON.Unmarshal(GoJSON bytes) failed: %v", err)
	}
	if err := gj.Unmarshal(stdBytes, &viaGo); err != nil {
		t.Fatalf("GoJSON.Unmarshal(JSON bytes) failed: %v", err)
	}
	if !reflect.DeepEqual(viaStd, viaGo) {
		t.Error("decoded fragments differ between codecs")
	}
}

func TestCodecNames(t *testing.T) {
	std := JSON{}
	gj := GoJSON{}
	if std.Name() != "json" {
		t.Errorf("JSON.Name = %q", std.Name())
	}
	if gj.Name() != "go-json" {
		t.Errorf("GoJSON.Name = %q", gj.Name())
	}
	if Default == nil {
		t.Fatal("Default codec is nil")
	}
}
