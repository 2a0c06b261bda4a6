package secrets

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"onboardhub/internal/ports"
)

func TestParse(t *testing.T) {
	cases := []struct {
		name    string
		raw     string
		want    ports.Credentials
		wantErr bool
	}{
		{
			name: "numeric port",
			raw:  `{"host":"db","port":5433,"dbname":"vendors","username":"app","password":"pw"}`,
			want: ports.Credentials{Host: "db", Port: 5433, Name: "vendors", User: "app", Password: "pw"},
		},
		{
			name: "string port",
			raw:  `{"host":"db","port":"5432","dbname":"vendors","username":"app"}`,
			want: ports.Credentials{Host: "db", Port: 5432, Name: "vendors", User: "app"},
		},
		{
			name: "no port",
			raw:  `{"host":"db","dbname":"vendors"}`,
			want: ports.Credentials{Host: "db", Name: "vendors"},
		},
		{name: "missing host", raw: `{"dbname":"vendors"}`, wantErr: true},
		{name: "bad port", raw: `{"host":"db","dbname":"v","port":70000}`, wantErr: true},
		{name: "not json", raw: `host=db`, wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Parse([]byte(tc.raw))
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got != tc.want {
				t.Fatalf("got %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestFileCachesFirstRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.json")
	if err := os.WriteFile(path, []byte(`{"host":"db","dbname":"vendors","username":"app","password":"one"}`), 0o600); err != nil {
		t.Fatal(err)
	}
	f := &File{Path: path}
	first, err := f.DatabaseCredentials(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(`{"host":"db","dbname":"vendors","password":"two"}`), 0o600); err != nil {
		t.Fatal(err)
	}
	second, err := f.DatabaseCredentials(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if first != second || second.Password != "one" {
		t.Fatalf("cache not honoured: %+v vs %+v", first, second)
	}
}

func TestFileMissing(t *testing.T) {
	f := &File{Path: filepath.Join(t.TempDir(), "absent.json")}
	if _, err := f.DatabaseCredentials(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestStatic(t *testing.T) {
	if _, err := (Static{Host: "db"}).DatabaseCredentials(context.Background()); err == nil {
		t.Fatal("expected error without dbname")
	}
	c, err := Static{Host: "db", Name: "v", User: "u"}.DatabaseCredentials(context.Background())
	if err != nil || c.User != "u" {
		t.Fatalf("got %+v, %v", c, err)
	}
}
