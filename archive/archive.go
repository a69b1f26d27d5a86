// Package archive is the opt-in, offline export path for capsule
// snapshots (spec.md never calls for this; it is the "diagnostic capsule
// export" item of SPEC_FULL.md's domain stack). It is never invoked from a
// query path — callers take a point-in-time copy of a worldfield.Capsule
// after collapse and hand it to Export, which reprojects the capsule's
// fixed-point bounds to geographic coordinates, tags a handful of
// human-meaningful scalars with physical units, and uploads the result to
// S3. The shape mirrors the teacher's cloud package: a small client
// wrapping a third-party SDK, a retry wrapper around the network call, and
// a config struct carrying the knobs a run operator sets once per export.
package archive

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/cenkalti/backoff"
	"github.com/ctessum/geom"
	"github.com/ctessum/geom/proj"
	"github.com/ctessum/unit"

	"github.com/spatialmodel/worldfield/worldfield"
)

// Config holds the export destination and the source projection the
// capsule's bounds are already in. GridProj mirrors the teacher's
// VarGridConfig.GridProj — a proj4 string describing the local grid's
// spatial reference.
type Config struct {
	Bucket    string
	KeyPrefix string
	GridProj  string // proj4 string for the capsule's local coordinate system
}

// Snapshot is the exported, human-consumable form of a capsule: geographic
// bounds instead of local fixed-point ones, and the averages of interest
// tagged with physical units instead of bare Q16.16 scalars.
type Snapshot struct {
	CapsuleID     uint64
	ExportedAt    time.Time
	Bounds        *geom.Bounds
	Averages      map[string]float64
	Temperature   *unit.Unit `json:"-"`
	Precipitation *unit.Unit `json:"-"`
}

// Uploader is the subset of the S3 API archive needs, narrowed from
// s3iface.S3API so export logic is testable against a fake.
type Uploader interface {
	PutObject(*s3.PutObjectInput) (*s3.PutObjectOutput, error)
}

var _ Uploader = (s3iface.S3API)(nil)

// NewUploader constructs an S3 client from the default AWS session and
// credential chain, the same construction the teacher's cloud.s3Bucket
// uses for its AWS SDK session.
func NewUploader(region string) (Uploader, error) {
	sess, err := session.NewSession(&aws.Config{Region: aws.String(region)})
	if err != nil {
		return nil, fmt.Errorf("archive: creating AWS session: %v", err)
	}
	return s3.New(sess), nil
}

// buildSnapshot reprojects bounds and tags the temperature/precipitation
// averages with units, grounded on VarGridConfig.bounds()'s cumulative
// geom.Bounds construction and the teacher's webMapTrans reprojection step
// before population/mortality grids are laid over the model grid.
func buildSnapshot(capsule worldfield.Capsule, cfg Config, now time.Time) (*Snapshot, error) {
	sr, err := proj.Parse(cfg.GridProj)
	if err != nil {
		return nil, fmt.Errorf("archive: parsing grid projection: %v", err)
	}
	geoSR, err := proj.Parse("+proj=longlat")
	if err != nil {
		return nil, fmt.Errorf("archive: parsing geographic projection: %v", err)
	}
	trans, err := sr.NewTransform(geoSR)
	if err != nil {
		return nil, fmt.Errorf("archive: building reprojection: %v", err)
	}

	minLon, minLat, err := trans(capsule.Bounds.Min.X.Float(), capsule.Bounds.Min.Y.Float())
	if err != nil {
		return nil, fmt.Errorf("archive: reprojecting min corner: %v", err)
	}
	maxLon, maxLat, err := trans(capsule.Bounds.Max.X.Float(), capsule.Bounds.Max.Y.Float())
	if err != nil {
		return nil, fmt.Errorf("archive: reprojecting max corner: %v", err)
	}

	snap := &Snapshot{
		CapsuleID:  uint64(capsule.ID),
		ExportedAt: now,
		Bounds: &geom.Bounds{
			Min: geom.Point{X: minLon, Y: minLat},
			Max: geom.Point{X: maxLon, Y: maxLat},
		},
		Averages: make(map[string]float64, len(capsule.Averages)),
	}
	for field, avg := range capsule.Averages {
		snap.Averages[field] = avg.Float()
	}
	if avg, ok := capsule.Averages["temperature_mean"]; ok && !avg.IsUnknown() {
		snap.Temperature = unit.New(avg.Float(), unit.Kelvin)
	}
	if avg, ok := capsule.Averages["precipitation_mean"]; ok && !avg.IsUnknown() {
		snap.Precipitation = unit.New(avg.Float(), unit.MeterPerSecond)
	}
	return snap, nil
}

// marshalSnapshot renders the snapshot to JSON, inlining the unit-tagged
// fields (which ctessum/unit.Unit itself does not marshal) as plain
// value/dimension pairs.
func marshalSnapshot(snap *Snapshot) ([]byte, error) {
	type tagged struct {
		Value      float64 `json:"value"`
		Dimensions string  `json:"dimensions"`
	}
	out := struct {
		CapsuleID     uint64             `json:"capsule_id"`
		ExportedAt    time.Time          `json:"exported_at"`
		Bounds        *geom.Bounds       `json:"bounds"`
		Averages      map[string]float64 `json:"averages"`
		Temperature   *tagged            `json:"temperature,omitempty"`
		Precipitation *tagged            `json:"precipitation,omitempty"`
	}{
		CapsuleID:  snap.CapsuleID,
		ExportedAt: snap.ExportedAt,
		Bounds:     snap.Bounds,
		Averages:   snap.Averages,
	}
	if snap.Temperature != nil {
		out.Temperature = &tagged{Value: snap.Temperature.Value(), Dimensions: snap.Temperature.Dimensions().String()}
	}
	if snap.Precipitation != nil {
		out.Precipitation = &tagged{Value: snap.Precipitation.Value(), Dimensions: snap.Precipitation.Dimensions().String()}
	}
	return json.MarshalIndent(out, "", "  ")
}

// Export takes a point-in-time copy of a collapsed capsule, reprojects its
// bounds, tags its headline averages with units, and uploads the result to
// S3 under cfg.KeyPrefix, retrying transient upload failures with
// exponential backoff — the same backoff.RetryNotify idiom the teacher's
// sr.go uses around its own network calls, applied here to an S3 PutObject
// instead of a distributed job submission.
func Export(capsule worldfield.Capsule, cfg Config, uploader Uploader, now time.Time) error {
	snap, err := buildSnapshot(capsule, cfg, now)
	if err != nil {
		return err
	}
	data, err := marshalSnapshot(snap)
	if err != nil {
		return fmt.Errorf("archive: marshaling snapshot: %v", err)
	}

	key := fmt.Sprintf("%s/%d.json", cfg.KeyPrefix, snap.CapsuleID)
	return backoff.RetryNotify(
		func() error {
			_, err := uploader.PutObject(&s3.PutObjectInput{
				Bucket: aws.String(cfg.Bucket),
				Key:    aws.String(key),
				Body:   bytes.NewReader(data),
			})
			return err
		},
		backoff.NewExponentialBackOff(),
		func(err error, d time.Duration) {
			// no logger threaded through here: archive is a one-shot CLI
			// path, not a long-lived domain with an injected FieldLogger.
		},
	)
}
