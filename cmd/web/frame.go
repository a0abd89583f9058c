package main

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/tomz197/starfield/internal/config"
	"github.com/tomz197/starfield/internal/snapshot"
	"github.com/tomz197/starfield/internal/starfield"
)

const (
	defaultWidth  = 640
	defaultHeight = 360
	defaultFrames = 120
	defaultSeed   = 1
)

var errBadQuery = errors.New("bad query")

// parseFrameQuery builds a snapshot request from the query string of
// /frame.png. base holds the server-wide engine overrides; count and color
// replace their fields for this request only.
func parseFrameQuery(q url.Values, limits config.Web, base starfield.Overrides) (snapshot.Request, error) {
	req := snapshot.Request{
		Width:     defaultWidth,
		Height:    defaultHeight,
		Frames:    defaultFrames,
		Seed:      defaultSeed,
		Overrides: base,
	}

	var err error
	if req.Width, err = intParam(q, "width", req.Width, 1, limits.MaxWidth); err != nil {
		return req, err
	}
	if req.Height, err = intParam(q, "height", req.Height, 1, limits.MaxHeight); err != nil {
		return req, err
	}
	if req.Frames, err = intParam(q, "frames", req.Frames, 0, limits.MaxFrames); err != nil {
		return req, err
	}

	if v := q.Get("seed"); v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return req, fmt.Errorf("%w: seed %q", errBadQuery, v)
		}
		req.Seed = seed
	}

	if v := q.Get("warp"); v != "" {
		warp, err := strconv.ParseBool(v)
		if err != nil {
			return req, fmt.Errorf("%w: warp %q", errBadQuery, v)
		}
		req.Accelerate = warp
	}

	if q.Get("count") != "" {
		count, err := intParam(q, "count", 0, 0, maxStars)
		if err != nil {
			return req, err
		}
		req.Overrides.StarCount = &count
	}

	if v := q.Get("color"); v != "" {
		req.Overrides.StarColor = &v
	}
	return req, nil
}

// maxStars bounds per-request star counts.
const maxStars = 5000

func intParam(q url.Values, name string, def, lo, hi int) (int, error) {
	v := q.Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q", errBadQuery, name, v)
	}
	if n < lo || n > hi {
		return 0, fmt.Errorf("%w: %s must be in [%d, %d]", errBadQuery, name, lo, hi)
	}
	return n, nil
}
