package protocol

import (
	"testing"

	"github.com/zsiec/moqt/internal/wire"
)

func TestSubscribeRoundTripFilters(t *testing.T) {
	t.Parallel()
	cases := []Subscribe{
		{
			SubscribeID: 1, TrackAlias: 2,
			Namespace: wire.Namespace{"live", "cam1"}, TrackName: "video",
			Priority: 128, GroupOrder: GroupOrderAscending, Forward: true,
			FilterType: FilterLatestObject,
		},
		{
			SubscribeID: 3, TrackAlias: 4,
			Namespace: wire.Namespace{"live"}, TrackName: "audio",
			FilterType:  FilterAbsoluteStart,
			StartGroup:  10,
			StartObject: 0,
		},
		{
			SubscribeID: 5, TrackAlias: 6,
			Namespace: wire.Namespace{"live"}, TrackName: "audio",
			FilterType:       FilterAbsoluteRange,
			StartGroup:       10,
			StartObject:      0,
			EndGroup:         20,
			Authorization:    "token",
			HasAuthorization: true,
		},
	}
	for i, s := range cases {
		got, err := ParseSubscribe(s.Serialize())
		if err != nil {
			t.Fatalf("case %d: ParseSubscribe: %v", i, err)
		}
		if got.SubscribeID != s.SubscribeID || got.TrackAlias != s.TrackAlias {
			t.Errorf("case %d: ids = %+v", i, got)
		}
		if !got.Namespace.Equal(s.Namespace) || got.TrackName != s.TrackName {
			t.Errorf("case %d: track = %+v", i, got)
		}
		if got.FilterType != s.FilterType || got.StartGroup != s.StartGroup ||
			got.StartObject != s.StartObject || got.EndGroup != s.EndGroup {
			t.Errorf("case %d: filter fields = %+v", i, got)
		}
		if got.HasAuthorization != s.HasAuthorization || got.Authorization != s.Authorization {
			t.Errorf("case %d: auth = %+v", i, got)
		}
	}
}

func TestSubscribeOKContentExists(t *testing.T) {
	t.Parallel()
	ok := SubscribeOK{
		SubscribeID: 1, Expires: 0, GroupOrder: GroupOrderAscending,
		ContentExists: true, LargestGroup: 5, LargestObject: 9,
	}
	got, err := ParseSubscribeOK(ok.Serialize())
	if err != nil {
		t.Fatalf("ParseSubscribeOK: %v", err)
	}
	if !got.ContentExists || got.LargestGroup != 5 || got.LargestObject != 9 {
		t.Errorf("got %+v", got)
	}
}

func TestSubscribeOKNoContent(t *testing.T) {
	t.Parallel()
	ok := SubscribeOK{SubscribeID: 2, ContentExists: false}
	got, err := ParseSubscribeOK(ok.Serialize())
	if err != nil {
		t.Fatalf("ParseSubscribeOK: %v", err)
	}
	if got.ContentExists || got.LargestGroup != 0 {
		t.Errorf("got %+v", got)
	}
}

func TestSubscribeErrorRoundTrip(t *testing.T) {
	t.Parallel()
	e := SubscribeError{SubscribeID: 7, ErrorCode: 0x02, ReasonPhrase: "not found"}
	got, err := ParseSubscribeError(e.Serialize())
	if err != nil {
		t.Fatalf("ParseSubscribeError: %v", err)
	}
	if got != e {
		t.Errorf("got %+v, want %+v", got, e)
	}
}

func TestSubscribeDoneRoundTrip(t *testing.T) {
	t.Parallel()
	d := SubscribeDone{SubscribeID: 9, StatusCode: 0x01, StreamCount: 3, ReasonPhrase: "unsubscribed"}
	got, err := ParseSubscribeDone(d.Serialize())
	if err != nil {
		t.Fatalf("ParseSubscribeDone: %v", err)
	}
	if got != d {
		t.Errorf("got %+v, want %+v", got, d)
	}
}

func TestSubscribeUpdateRoundTrip(t *testing.T) {
	t.Parallel()
	u := SubscribeUpdate{SubscribeID: 1, StartGroup: 2, StartObject: 0, EndGroup: 10, Priority: 200, Forward: false}
	got, err := ParseSubscribeUpdate(u.Serialize())
	if err != nil {
		t.Fatalf("ParseSubscribeUpdate: %v", err)
	}
	if got != u {
		t.Errorf("got %+v, want %+v", got, u)
	}
}

func TestMaxSubscribeIDAndBlocked(t *testing.T) {
	t.Parallel()
	m := MaxSubscribeID{SubscribeID: 42}
	gotM, err := ParseMaxSubscribeID(m.Serialize())
	if err != nil || gotM != m {
		t.Fatalf("MaxSubscribeID round trip: got %+v, %v", gotM, err)
	}

	b := SubscribesBlocked{MaximumSubscribeID: 99}
	gotB, err := ParseSubscribesBlocked(b.Serialize())
	if err != nil || gotB != b {
		t.Fatalf("SubscribesBlocked round trip: got %+v, %v", gotB, err)
	}
}
