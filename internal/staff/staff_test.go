package staff

import "testing"

func TestStoresDeduplicatesPrimaryAndLinks(t *testing.T) {
	primary := int64(7)
	e := Employee{StoreID: &primary, LinkedStores: []int64{7, 8, 9, 8}}

	got := e.Stores()
	want := []int64{7, 8, 9}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestWorksAt(t *testing.T) {
	primary := int64(7)
	cases := []struct {
		name  string
		e     Employee
		store int64
		want  bool
	}{
		{"primary store", Employee{StoreID: &primary}, 7, true},
		{"linked store", Employee{StoreID: &primary, LinkedStores: []int64{12}}, 12, true},
		{"other store", Employee{StoreID: &primary, LinkedStores: []int64{12}}, 13, false},
		{"no stores", Employee{}, 7, false},
	}

	for _, tc := range cases {
		if got := tc.e.WorksAt(tc.store); got != tc.want {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}
