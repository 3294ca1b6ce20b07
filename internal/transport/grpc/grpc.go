// Package grpc implements the gRPC transport for the narrator.
//
// The Feedback service is described by hand and carried with a JSON codec,
// so clients call it with the "json" content subtype and the same bodies the
// HTTP transport accepts. The standard gRPC health service is registered
// alongside it.
package grpc

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/encoding"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"

	"github.com/nadzzz/narrator/internal/feedback"
	"github.com/nadzzz/narrator/internal/message"
	"github.com/nadzzz/narrator/internal/transport"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "narrator.v1.Feedback"

// CodecName is the content subtype clients must request.
const CodecName = "json"

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (jsonCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }
func (jsonCodec) Name() string                       { return CodecName }

// FeedbackServer is the server API for the Feedback service.
type FeedbackServer interface {
	PlayNarration(context.Context, *message.NarrationRequest) (*message.AcceptedResponse, error)
	PlaySound(context.Context, *message.SoundRequest) (*message.AcceptedResponse, error)
	GetSettings(context.Context, *message.Empty) (*message.SettingsResponse, error)
	ToggleAudio(context.Context, *message.Empty) (*message.ToggleResponse, error)
	SetVolume(context.Context, *message.VolumeRequest) (*message.SettingsResponse, error)
	ToggleMusic(context.Context, *message.Empty) (*message.ToggleResponse, error)
	ListVoices(context.Context, *message.Empty) (*message.VoicesResponse, error)
}

// unary adapts a typed method to a grpc.MethodDesc handler.
func unary[Req, Resp any](method string, call func(FeedbackServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(FeedbackServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/" + method}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(FeedbackServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// ServiceDesc describes the Feedback service.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*FeedbackServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("PlayNarration", FeedbackServer.PlayNarration),
		unary("PlaySound", FeedbackServer.PlaySound),
		unary("GetSettings", FeedbackServer.GetSettings),
		unary("ToggleAudio", FeedbackServer.ToggleAudio),
		unary("SetVolume", FeedbackServer.SetVolume),
		unary("ToggleMusic", FeedbackServer.ToggleMusic),
		unary("ListVoices", FeedbackServer.ListVoices),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "narrator/v1/feedback",
}

// Transport implements transport.Transport over gRPC.
type Transport struct {
	port   int
	server *grpc.Server
	health *health.Server
}

// New creates a new gRPC transport on the given port.
func New(port int) *Transport {
	return &Transport{port: port}
}

// Name returns the transport identifier.
func (t *Transport) Name() string { return "grpc" }

// Listen starts the gRPC server and routes incoming requests to the controller.
func (t *Transport) Listen(ctx context.Context, ctl transport.Controller) error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", t.port))
	if err != nil {
		return fmt.Errorf("grpc listen: %w", err)
	}

	t.server, t.health = NewServer(ctl)

	slog.Info("grpc transport listening", "port", t.port)

	go func() {
		<-ctx.Done()
		slog.Info("grpc transport shutting down")
		_ = t.Close()
	}()

	return t.server.Serve(lis)
}

// Close gracefully stops the gRPC server.
func (t *Transport) Close() error {
	if t.health != nil {
		t.health.Shutdown()
	}
	if t.server != nil {
		t.server.GracefulStop()
	}
	return nil
}

// NewServer builds a gRPC server with the Feedback and health services
// registered for ctl.
func NewServer(ctl transport.Controller, opts ...grpc.ServerOption) (*grpc.Server, *health.Server) {
	s := grpc.NewServer(opts...)
	s.RegisterService(&ServiceDesc, &feedbackServer{ctl: ctl})

	hs := health.NewServer()
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(s, hs)
	return s, hs
}

type feedbackServer struct {
	ctl transport.Controller
}

var _ FeedbackServer = (*feedbackServer)(nil)

func (s *feedbackServer) PlayNarration(_ context.Context, req *message.NarrationRequest) (*message.AcceptedResponse, error) {
	s.ctl.PlayNarration(req.Text)
	return &message.AcceptedResponse{Status: "accepted"}, nil
}

func (s *feedbackServer) PlaySound(_ context.Context, req *message.SoundRequest) (*message.AcceptedResponse, error) {
	kind, err := feedback.ParseToneKind(req.Kind)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	s.ctl.PlaySound(kind)
	return &message.AcceptedResponse{Status: "accepted"}, nil
}

func (s *feedbackServer) GetSettings(context.Context, *message.Empty) (*message.SettingsResponse, error) {
	resp := message.FromSettings(s.ctl.Settings())
	return &resp, nil
}

func (s *feedbackServer) ToggleAudio(context.Context, *message.Empty) (*message.ToggleResponse, error) {
	enabled := s.ctl.ToggleAudio()
	return &message.ToggleResponse{Enabled: enabled, Settings: message.FromSettings(s.ctl.Settings())}, nil
}

func (s *feedbackServer) SetVolume(_ context.Context, req *message.VolumeRequest) (*message.SettingsResponse, error) {
	if req.Volume == nil {
		return nil, status.Error(codes.InvalidArgument, "volume is required")
	}
	s.ctl.SetVolume(*req.Volume)
	resp := message.FromSettings(s.ctl.Settings())
	return &resp, nil
}

func (s *feedbackServer) ToggleMusic(context.Context, *message.Empty) (*message.ToggleResponse, error) {
	enabled := s.ctl.ToggleMusic()
	return &message.ToggleResponse{Enabled: enabled, Settings: message.FromSettings(s.ctl.Settings())}, nil
}

func (s *feedbackServer) ListVoices(ctx context.Context, _ *message.Empty) (*message.VoicesResponse, error) {
	listing, err := s.ctl.Voices(ctx)
	if err != nil {
		return nil, status.Error(codes.Unavailable, err.Error())
	}
	resp := message.FromVoiceListing(s.ctl.Profile().Name, listing)
	return &resp, nil
}

// Client calls the Feedback service over an existing connection.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps cc.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func invoke[Resp any](ctx context.Context, c *Client, method string, req any, opts ...grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) PlayNarration(ctx context.Context, text string, opts ...grpc.CallOption) error {
	_, err := invoke[message.AcceptedResponse](ctx, c, "PlayNarration", &message.NarrationRequest{Text: text}, opts...)
	return err
}

func (c *Client) PlaySound(ctx context.Context, kind string, opts ...grpc.CallOption) error {
	_, err := invoke[message.AcceptedResponse](ctx, c, "PlaySound", &message.SoundRequest{Kind: kind}, opts...)
	return err
}

func (c *Client) GetSettings(ctx context.Context, opts ...grpc.CallOption) (*message.SettingsResponse, error) {
	return invoke[message.SettingsResponse](ctx, c, "GetSettings", &message.Empty{}, opts...)
}

func (c *Client) ToggleAudio(ctx context.Context, opts ...grpc.CallOption) (*message.ToggleResponse, error) {
	return invoke[message.ToggleResponse](ctx, c, "ToggleAudio", &message.Empty{}, opts...)
}

func (c *Client) SetVolume(ctx context.Context, volume float64, opts ...grpc.CallOption) (*message.SettingsResponse, error) {
	return invoke[message.SettingsResponse](ctx, c, "SetVolume", &message.VolumeRequest{Volume: &volume}, opts...)
}

func (c *Client) ToggleMusic(ctx context.Context, opts ...grpc.CallOption) (*message.ToggleResponse, error) {
	return invoke[message.ToggleResponse](ctx, c, "ToggleMusic", &message.Empty{}, opts...)
}

func (c *Client) ListVoices(ctx context.Context, opts ...grpc.CallOption) (*message.VoicesResponse, error) {
	return invoke[message.VoicesResponse](ctx, c, "ListVoices", &message.Empty{}, opts...)
}
