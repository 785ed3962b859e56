package s3

import "testing"

func TestSplitEndpoint(t *testing.T) {
	tests := []struct {
		raw        string
		useSSL     bool
		wantHost   string
		wantSecure bool
		wantErr    bool
	}{
		{raw: "localhost:9000", wantHost: "localhost:9000"},
		{raw: "minio.internal:9000/", useSSL: true, wantHost: "minio.internal:9000", wantSecure: true},
		{raw: "https://storage.example.com", wantHost: "storage.example.com", wantSecure: true},
		{raw: "http://127.0.0.1:9000", useSSL: true, wantHost: "127.0.0.1:9000"},
		{raw: "ftp://storage.example.com", wantErr: true},
		{raw: "  ", wantErr: true},
	}

	for _, tc := range tests {
		host, secure, err := splitEndpoint(tc.raw, tc.useSSL)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("%q: expected error", tc.raw)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%q: %v", tc.raw, err)
		}
		if host != tc.wantHost || secure != tc.wantSecure {
			t.Fatalf("%q: got (%s,%v) want (%s,%v)", tc.raw, host, secure, tc.wantHost, tc.wantSecure)
		}
	}
}

func TestNewClientRequiresCredentials(t *testing.T) {
	if _, err := NewClient(Config{Endpoint: "localhost:9000"}); err == nil {
		t.Fatalf("expected error without credentials")
	}

	client, err := NewClient(Config{Endpoint: "https://storage.example.com", AccessKey: "a", SecretKey: "b"})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if client.EndpointURL().Scheme != "https" {
		t.Fatalf("unexpected scheme: %s", client.EndpointURL().Scheme)
	}
}
