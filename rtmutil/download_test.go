/*
Copyright © 2024 the AtmRTM authors.
This file is part of AtmRTM.

AtmRTM is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

AtmRTM is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with AtmRTM.  If not, see <http://www.gnu.org/licenses/>.
*/

package rtmutil

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
)

func TestMaybeDownloadLocal(t *testing.T) {
	log, _ := test.NewNullLogger()
	for _, path := range []string{"/dev/null", "/blah/test/"} {
		k, err := maybeDownload(context.Background(), path, log)
		if err != nil {
			t.Fatal(err)
		}
		if k != path {
			t.Errorf("expected %s, got %s", path, k)
		}
	}
}

func TestMaybeDownloadHTTP(t *testing.T) {
	var requests int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/missing.nc":
			http.NotFound(w, r)
		case atomic.AddInt32(&requests, 1) < 3:
			http.Error(w, "try again", http.StatusServiceUnavailable)
		default:
			fmt.Fprint(w, "profile data")
		}
	}))
	defer srv.Close()
	log, hook := test.NewNullLogger()

	k, err := maybeDownload(context.Background(), srv.URL+"/profiles.nc", log)
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(k) != "profiles.nc" {
		t.Errorf("expected tempDir/profiles.nc, got %s", k)
	}
	b, err := os.ReadFile(k)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "profile data" {
		t.Errorf("downloaded %q", b)
	}
	if n := atomic.LoadInt32(&requests); n != 3 {
		t.Errorf("have %d requests, want 3", n)
	}
	if len(hook.Entries) != 3 { // two retries and one success
		t.Errorf("have %d log entries, want 3", len(hook.Entries))
	}

	if _, err := maybeDownload(context.Background(), srv.URL+"/missing.nc", log); err == nil {
		t.Error("no error for missing file")
	}
}

// testBucket creates a file blob bucket in the working directory
// and returns its name.
func testBucket(t *testing.T) string {
	t.Helper()
	const name = "testbucket"
	if err := os.Mkdir(name, 0755); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.RemoveAll(name) })
	return name
}

func TestBlobRoundTrip(t *testing.T) {
	bucket := testBucket(t)
	ctx := context.Background()
	log, _ := test.NewNullLogger()

	var u uploader
	remote := "file://" + bucket + "/output.nc"
	local := u.maybeUpload(remote)
	if local == remote {
		t.Fatal("blob path was not replaced by a local path")
	}
	if err := os.WriteFile(local, []byte("results"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := u.uploadOutput(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(bucket, "output.nc")); err != nil {
		t.Fatal(err)
	}

	k, err := maybeDownload(ctx, remote, log)
	if err != nil {
		t.Fatal(err)
	}
	b, err := os.ReadFile(k)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "results" {
		t.Errorf("downloaded %q", b)
	}

	if _, err := maybeDownload(ctx, "file://"+bucket+"/missing.nc", log); err == nil {
		t.Error("no error for missing blob")
	}
}

func TestOpenBucketInvalid(t *testing.T) {
	if _, err := OpenBucket(context.Background(), "ftp://bucket"); err == nil {
		t.Error("no error for invalid provider")
	}
}
