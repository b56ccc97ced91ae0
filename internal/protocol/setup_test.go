package protocol

import "testing"

func TestClientServerSetupRoundTrip(t *testing.T) {
	t.Parallel()
	cs := ClientSetup{
		Versions:     []uint64{Version, 0xff00000a},
		Path:         "/moq",
		HasPath:      true,
		MaxSubscribe: 100,
	}
	got, err := ParseClientSetup(cs.Serialize())
	if err != nil {
		t.Fatalf("ParseClientSetup: %v", err)
	}
	if len(got.Versions) != 2 || got.Versions[0] != Version {
		t.Errorf("versions = %v", got.Versions)
	}
	if got.Path != "/moq" || !got.HasPath {
		t.Errorf("path = %q, hasPath = %v", got.Path, got.HasPath)
	}
	if got.MaxSubscribe != 100 {
		t.Errorf("maxSubscribe = %d", got.MaxSubscribe)
	}

	ss := ServerSetup{SelectedVersion: Version, MaxSubscribe: 50}
	gotSS, err := ParseServerSetup(ss.Serialize())
	if err != nil {
		t.Fatalf("ParseServerSetup: %v", err)
	}
	if gotSS.SelectedVersion != Version || gotSS.MaxSubscribe != 50 {
		t.Errorf("got %+v", gotSS)
	}
}

func TestClientSetupNoPath(t *testing.T) {
	t.Parallel()
	cs := ClientSetup{Versions: []uint64{Version}}
	got, err := ParseClientSetup(cs.Serialize())
	if err != nil {
		t.Fatalf("ParseClientSetup: %v", err)
	}
	if got.HasPath {
		t.Error("expected no path parameter")
	}
}
