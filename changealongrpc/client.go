/*
Copyright © 2026 the changealong authors.
This file is part of changealong.

changealong is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

changealong is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with changealong.  If not, see <http://www.gnu.org/licenses/>.
*/


package changealongrpc

import (
	"context"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/prosuite/changealong"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// DefaultTimeoutPerFeature is the time a call is allowed per source and
// target feature.
const DefaultTimeoutPerFeature = 5 * time.Second

// Client is a changealong.Service that forwards calls to a remote
// server. Features in the results are the caller's own features, looked
// up by class handle and object ID.
type Client struct {
	client ChangeAlongClient
	conn   *grpc.ClientConn

	// TimeoutPerFeature bounds each call to this duration times the
	// number of features sent. Zero disables the deadline.
	TimeoutPerFeature time.Duration

	Log logrus.FieldLogger
}

// NewClient returns a Client using an established connection.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{
		client:            NewChangeAlongClient(cc),
		TimeoutPerFeature: DefaultTimeoutPerFeature,
	}
}

// Dial connects to the server at addr, retrying with exponential backoff
// until ctx is done.
func Dial(ctx context.Context, addr string, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(
			grpc.MaxCallRecvMsgSize(MaxMsgSize),
			grpc.MaxCallSendMsgSize(MaxMsgSize),
		),
		grpc.WithBlock(),
	}, opts...)
	var conn *grpc.ClientConn
	err := backoff.RetryNotify(
		func() error {
			dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			var err error
			conn, err = grpc.DialContext(dialCtx, addr, opts...)
			if err != nil && ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return err
		},
		backoff.WithContext(backoff.NewExponentialBackOff(), ctx),
		func(err error, d time.Duration) {
			logrus.WithError(err).WithField("addr", addr).Warnf("dialing change-along server; retrying in %v", d)
		},
	)
	if err != nil {
		return nil, errors.Wrapf(err, "changealongrpc: dialing %s", addr)
	}
	c := NewClient(conn)
	c.conn = conn
	return c, nil
}

// Close closes the connection opened by Dial.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

func (c *Client) log() logrus.FieldLogger {
	if c.Log == nil {
		return logrus.StandardLogger()
	}
	return c.Log
}

// callContext adds the request ID and the deadline for n features.
func (c *Client) callContext(ctx context.Context, n int) (context.Context, context.CancelFunc, string) {
	id := uuid.New().String()
	ctx = metadata.AppendToOutgoingContext(ctx, RequestIDKey, id)
	if c.TimeoutPerFeature <= 0 || n == 0 {
		ctx, cancel := context.WithCancel(ctx)
		return ctx, cancel, id
	}
	ctx, cancel := context.WithTimeout(ctx, c.TimeoutPerFeature*time.Duration(n))
	return ctx, cancel, id
}

// cancelled reports whether err means that the call was cancelled or
// timed out, in which case the caller receives an empty result.
func (c *Client) cancelled(method, id string, err error) bool {
	switch status.Code(err) {
	case codes.Canceled, codes.DeadlineExceeded:
		c.log().WithFields(logrus.Fields{
			"method":     method,
			RequestIDKey: id,
		}).WithError(err).Warn("change-along request cancelled")
		return true
	}
	return false
}

func (c *Client) wrap(method, id string, trailer metadata.MD, err error) error {
	fields := logrus.Fields{"method": method, RequestIDKey: id}
	if d := trailer.Get(DiagnosticsKey); len(d) > 0 {
		fields[DiagnosticsKey] = d[0]
	}
	c.log().WithFields(fields).WithError(err).Error("change-along request failed")
	return errors.Wrapf(err, "changealongrpc: %s", method)
}

func (c *Client) calculateReshapeRequest(sources, targets []*changealong.Feature,
	buffer changealong.TargetBufferOptions, filter changealong.ReshapeCurveFilterOptions,
	tolerance *float64) CalculateReshapeLinesRequest {
	classes, features := encodeFeatures(sources, targets)
	return CalculateReshapeLinesRequest{
		ClassDefinitions:    classes,
		SourceFeatures:      features[0],
		TargetFeatures:      features[1],
		TargetBufferOptions: toBufferMsg(buffer),
		FilterOptions:       toFilterMsg(filter),
		Tolerance:           tolerance,
	}
}

func (c *Client) calculateCutRequest(sources, targets []*changealong.Feature,
	buffer changealong.TargetBufferOptions, clipExtent *changealong.Envelope,
	tolerance *float64, zSource changealong.ZSource) CalculateCutLinesRequest {
	classes, features := encodeFeatures(sources, targets)
	req := CalculateCutLinesRequest{
		ClassDefinitions:    classes,
		SourceFeatures:      features[0],
		TargetFeatures:      features[1],
		TargetBufferOptions: toBufferMsg(buffer),
		Tolerance:           tolerance,
		ZSource:             int(zSource),
	}
	if clipExtent != nil {
		e := toEnvelopeMsg(*clipExtent)
		req.ClipExtent = &e
	}
	return req
}

// CalculateReshapeLines implements changealong.Service.
func (c *Client) CalculateReshapeLines(ctx context.Context, sources, targets []*changealong.Feature,
	buffer changealong.TargetBufferOptions, filter changealong.ReshapeCurveFilterOptions,
	tolerance *float64) (*changealong.CurveSet, error) {
	const method = "CalculateReshapeLines"
	if ctx.Err() != nil {
		return changealong.EmptyCurveSet(), nil
	}
	req := c.calculateReshapeRequest(sources, targets, buffer, filter, tolerance)
	ctx, cancel, id := c.callContext(ctx, len(sources)+len(targets))
	defer cancel()
	var trailer metadata.MD
	resp, err := c.client.CalculateReshapeLines(ctx, &req, grpc.Trailer(&trailer))
	if err != nil {
		if c.cancelled(method, id, err) {
			return changealong.EmptyCurveSet(), nil
		}
		return nil, c.wrap(method, id, trailer, err)
	}
	set := setFromMsgs(resp.ReshapeLinesUsability, resp.ReshapeLines, resp.Tolerance, targets)
	if resp.FilterBuffer != nil {
		set.SetFilterBuffer(fromShapeMsg(*resp.FilterBuffer))
	}
	return set, nil
}

// CalculateCutLines implements changealong.Service.
func (c *Client) CalculateCutLines(ctx context.Context, sources, targets []*changealong.Feature,
	buffer changealong.TargetBufferOptions, clipExtent *changealong.Envelope, tolerance *float64,
	zSource changealong.ZSource) (*changealong.CurveSet, error) {
	const method = "CalculateCutLines"
	if ctx.Err() != nil {
		return changealong.EmptyCurveSet(), nil
	}
	req := c.calculateCutRequest(sources, targets, buffer, clipExtent, tolerance, zSource)
	ctx, cancel, id := c.callContext(ctx, len(sources)+len(targets))
	defer cancel()
	var trailer metadata.MD
	resp, err := c.client.CalculateCutLines(ctx, &req, grpc.Trailer(&trailer))
	if err != nil {
		if c.cancelled(method, id, err) {
			return changealong.EmptyCurveSet(), nil
		}
		return nil, c.wrap(method, id, trailer, err)
	}
	return setFromMsgs(resp.CutLinesUsability, resp.CutLines, resp.Tolerance, targets), nil
}

// ApplyReshapeLines implements changealong.Service.
func (c *Client) ApplyReshapeLines(ctx context.Context, sources, targets []*changealong.Feature,
	selected []*changealong.Subcurve, buffer changealong.TargetBufferOptions,
	filter changealong.ReshapeCurveFilterOptions, tolerance *float64,
	insertVerticesInTarget, nonDefaultSide bool) ([]changealong.ResultObject, *changealong.CurveSet, error) {
	const method = "ApplyReshapeLines"
	if ctx.Err() != nil {
		return nil, changealong.EmptyCurveSet(), nil
	}
	req := ApplyReshapeLinesRequest{
		CalculationRequest:       c.calculateReshapeRequest(sources, targets, buffer, filter, tolerance),
		ReshapeLines:             toReshapeLineMsgs(selected),
		InsertVerticesInTarget:   insertVerticesInTarget,
		UseNonDefaultReshapeSide: nonDefaultSide,
	}
	ctx, cancel, id := c.callContext(ctx, len(sources)+len(targets))
	defer cancel()
	var trailer metadata.MD
	resp, err := c.client.ApplyReshapeLines(ctx, &req, grpc.Trailer(&trailer))
	if err != nil {
		if c.cancelled(method, id, err) {
			return nil, changealong.EmptyCurveSet(), nil
		}
		return nil, nil, c.wrap(method, id, trailer, err)
	}
	results, err := fromResultMsgs(resp.ResultFeatures, changealong.NewFeatureIndex(sources, targets))
	if err != nil {
		return nil, nil, errors.Wrap(err, "changealongrpc: "+method)
	}
	return results, setFromMsgs(resp.ReshapeLinesUsability, resp.NewReshapeLines, resp.Tolerance, targets), nil
}

// ApplyCutLines implements changealong.Service.
func (c *Client) ApplyCutLines(ctx context.Context, sources, targets []*changealong.Feature,
	selected []*changealong.Subcurve, buffer changealong.TargetBufferOptions,
	clipExtent *changealong.Envelope, tolerance *float64, zSource changealong.ZSource,
	insertVerticesInTarget bool) ([]changealong.ResultObject, *changealong.CurveSet, error) {
	const method = "ApplyCutLines"
	if ctx.Err() != nil {
		return nil, changealong.EmptyCurveSet(), nil
	}
	req := ApplyCutLinesRequest{
		CalculationRequest:     c.calculateCutRequest(sources, targets, buffer, clipExtent, tolerance, zSource),
		CutLines:               toReshapeLineMsgs(selected),
		InsertVerticesInTarget: insertVerticesInTarget,
	}
	ctx, cancel, id := c.callContext(ctx, len(sources)+len(targets))
	defer cancel()
	var trailer metadata.MD
	resp, err := c.client.ApplyCutLines(ctx, &req, grpc.Trailer(&trailer))
	if err != nil {
		if c.cancelled(method, id, err) {
			return nil, changealong.EmptyCurveSet(), nil
		}
		return nil, nil, c.wrap(method, id, trailer, err)
	}
	results, err := fromResultMsgs(resp.ResultFeatures, changealong.NewFeatureIndex(sources, targets))
	if err != nil {
		return nil, nil, errors.Wrap(err, "changealongrpc: "+method)
	}
	return results, setFromMsgs(resp.CutLinesUsability, resp.NewCutLines, resp.Tolerance, targets), nil
}
