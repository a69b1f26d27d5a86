package archive

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go/service/s3"

	"github.com/spatialmodel/worldfield/fixedpoint"
	"github.com/spatialmodel/worldfield/worldfield"
)

type fakeUploader struct {
	failures int
	calls    int
	lastBody []byte
}

func (f *fakeUploader) PutObject(in *s3.PutObjectInput) (*s3.PutObjectOutput, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, errors.New("transient upload failure")
	}
	buf := make([]byte, 0)
	if in.Body != nil {
		b := make([]byte, 1<<16)
		n, _ := in.Body.Read(b)
		buf = b[:n]
	}
	f.lastBody = buf
	return &s3.PutObjectOutput{}, nil
}

func testCapsule() worldfield.Capsule {
	c := worldfield.NewCapsule(1, worldfield.AABB{
		Min: worldfield.Point{X: fixedpoint.FromInt(-10), Y: fixedpoint.FromInt(-10), Z: 0},
		Max: worldfield.Point{X: fixedpoint.FromInt(10), Y: fixedpoint.FromInt(10), Z: 0},
	})
	c.Averages["temperature_mean"] = fixedpoint.FromFloat(288.0)
	c.Averages["precipitation_mean"] = fixedpoint.FromFloat(0.002)
	return c
}

func testConfig() Config {
	return Config{Bucket: "test-bucket", KeyPrefix: "capsules", GridProj: "+proj=longlat"}
}

func TestBuildSnapshotTagsKnownAverages(t *testing.T) {
	snap, err := buildSnapshot(testCapsule(), testConfig(), time.Unix(0, 0))
	if err != nil {
		t.Fatalf("buildSnapshot: %v", err)
	}
	if snap.Temperature == nil {
		t.Fatal("expected Temperature to be tagged")
	}
	if snap.Temperature.Value() != 288.0 {
		t.Fatalf("Temperature value = %v, want 288.0", snap.Temperature.Value())
	}
	if snap.Precipitation == nil {
		t.Fatal("expected Precipitation to be tagged")
	}
	if snap.Bounds == nil {
		t.Fatal("expected Bounds to be set")
	}
}

func TestBuildSnapshotOmitsUnknownAverages(t *testing.T) {
	c := testCapsule()
	delete(c.Averages, "temperature_mean")
	snap, err := buildSnapshot(c, testConfig(), time.Unix(0, 0))
	if err != nil {
		t.Fatalf("buildSnapshot: %v", err)
	}
	if snap.Temperature != nil {
		t.Fatal("expected Temperature to stay nil when the average is absent")
	}
}

func TestMarshalSnapshotProducesValidJSON(t *testing.T) {
	snap, err := buildSnapshot(testCapsule(), testConfig(), time.Unix(0, 0))
	if err != nil {
		t.Fatalf("buildSnapshot: %v", err)
	}
	data, err := marshalSnapshot(snap)
	if err != nil {
		t.Fatalf("marshalSnapshot: %v", err)
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("marshalSnapshot produced invalid JSON: %v", err)
	}
	if _, ok := decoded["temperature"]; !ok {
		t.Fatal("expected a temperature key in the marshaled snapshot")
	}
}

func TestExportUploadsSnapshot(t *testing.T) {
	up := &fakeUploader{}
	if err := Export(testCapsule(), testConfig(), up, time.Unix(0, 0)); err != nil {
		t.Fatalf("Export: %v", err)
	}
	if up.calls != 1 {
		t.Fatalf("PutObject calls = %d, want 1", up.calls)
	}
	if len(up.lastBody) == 0 {
		t.Fatal("expected a non-empty uploaded body")
	}
}

func TestExportRetriesTransientFailures(t *testing.T) {
	up := &fakeUploader{failures: 2}
	if err := Export(testCapsule(), testConfig(), up, time.Unix(0, 0)); err != nil {
		t.Fatalf("Export: %v", err)
	}
	if up.calls != 3 {
		t.Fatalf("PutObject calls = %d, want 3 (2 failures + 1 success)", up.calls)
	}
}
