package protocol

import (
	"testing"

	"github.com/zsiec/moqt/internal/wire"
)

func TestFetchFamilyRoundTrip(t *testing.T) {
	t.Parallel()
	f := Fetch{
		SubscribeID: 1, Priority: DefaultPriority, GroupOrder: GroupOrderAscending,
		Namespace: wire.Namespace{"live", "cam1"}, TrackName: "video",
		StartGroup: 0, StartObject: 0, EndGroup: 10, EndObject: 0,
	}
	got, err := ParseFetch(f.Serialize())
	if err != nil {
		t.Fatalf("ParseFetch: %v", err)
	}
	if got.SubscribeID != f.SubscribeID || !got.Namespace.Equal(f.Namespace) ||
		got.TrackName != f.TrackName || got.EndGroup != f.EndGroup {
		t.Errorf("got %+v", got)
	}

	ok := FetchOK{SubscribeID: 1, GroupOrder: GroupOrderAscending, EndOfTrack: true, LargestGroup: 10, LargestObject: 4}
	gotOK, err := ParseFetchOK(ok.Serialize())
	if err != nil {
		t.Fatalf("ParseFetchOK: %v", err)
	}
	if !gotOK.EndOfTrack || gotOK.LargestGroup != 10 {
		t.Errorf("got %+v", gotOK)
	}

	fe := FetchError{SubscribeID: 1, ErrorCode: 1, ReasonPhrase: "no such range"}
	gotFE, err := ParseFetchError(fe.Serialize())
	if err != nil || gotFE != fe {
		t.Fatalf("FetchError: got %+v, %v", gotFE, err)
	}

	fc := FetchCancel{SubscribeID: 1}
	gotFC, err := ParseFetchCancel(fc.Serialize())
	if err != nil || gotFC != fc {
		t.Fatalf("FetchCancel: got %+v, %v", gotFC, err)
	}
}
