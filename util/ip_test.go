package util

import "testing"

func Test_AdvertiseAddr(t *testing.T) {
	cases := []struct {
		listen, ip, want string
	}{
		{":10086", "10.0.0.2", "10.0.0.2:10086"},
		{"0.0.0.0:7", "10.0.0.2", "10.0.0.2:7"},
		{"127.0.0.1:7", "10.0.0.2", "127.0.0.1:7"},
	}
	for _, c := range cases {
		got, err := AdvertiseAddr(c.listen, c.ip)
		if err != nil || got != c.want {
			t.Errorf("AdvertiseAddr(%q) = %q, %v", c.listen, got, err)
		}
	}
	if _, err := AdvertiseAddr("nonsense", "1.2.3.4"); err == nil {
		t.Error("bad address accepted")
	}
}
