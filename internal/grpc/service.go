package grpc

import (
	"context"

	"google.golang.org/grpc"
)

// ServiceName полное имя gRPC сервиса
const ServiceName = "timetable.TimetableService"

// TimetableService методы gRPC API
type TimetableService interface {
	ListFaculties(context.Context, *ListFacultiesRequest) (*ListFacultiesResponse, error)
	ListCourses(context.Context, *ListCoursesRequest) (*ListCoursesResponse, error)
	GetWeekSchedule(context.Context, *WeekRequest) (*WeekScheduleResponse, error)
	GetTimetableURL(context.Context, *TimetableURLRequest) (*TimetableURLResponse, error)
	ExportWeekCalendar(context.Context, *WeekRequest) (*CalendarResponse, error)
	RefreshDirectory(context.Context, *RefreshDirectoryRequest) (*RefreshDirectoryResponse, error)
}

// FullMethod полное имя метода для интерсепторов
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*TimetableService)(nil),
	Methods: []grpc.MethodDesc{
		unary("ListFaculties", TimetableService.ListFaculties),
		unary("ListCourses", TimetableService.ListCourses),
		unary("GetWeekSchedule", TimetableService.GetWeekSchedule),
		unary("GetTimetableURL", TimetableService.GetTimetableURL),
		unary("ExportWeekCalendar", TimetableService.ExportWeekCalendar),
		unary("RefreshDirectory", TimetableService.RefreshDirectory),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "timetable",
}

// RegisterTimetableService регистрирует реализацию на сервере
func RegisterTimetableService(s grpc.ServiceRegistrar, srv TimetableService) {
	s.RegisterService(&serviceDesc, srv)
}

func unary[Req, Resp any](method string, call func(TimetableService, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(TimetableService), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(method)}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(srv.(TimetableService), ctx, req.(*Req))
			})
		},
	}
}

// Client клиент gRPC API с JSON кодеком
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient создает клиента поверх соединения
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func invoke[Resp any](ctx context.Context, c *Client, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := c.cc.Invoke(ctx, FullMethod(method), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListFaculties(ctx context.Context, in *ListFacultiesRequest, opts ...grpc.CallOption) (*ListFacultiesResponse, error) {
	return invoke[ListFacultiesResponse](ctx, c, "ListFaculties", in, opts)
}

func (c *Client) ListCourses(ctx context.Context, in *ListCoursesRequest, opts ...grpc.CallOption) (*ListCoursesResponse, error) {
	return invoke[ListCoursesResponse](ctx, c, "ListCourses", in, opts)
}

func (c *Client) GetWeekSchedule(ctx context.Context, in *WeekRequest, opts ...grpc.CallOption) (*WeekScheduleResponse, error) {
	return invoke[WeekScheduleResponse](ctx, c, "GetWeekSchedule", in, opts)
}

func (c *Client) GetTimetableURL(ctx context.Context, in *TimetableURLRequest, opts ...grpc.CallOption) (*TimetableURLResponse, error) {
	return invoke[TimetableURLResponse](ctx, c, "GetTimetableURL", in, opts)
}

func (c *Client) ExportWeekCalendar(ctx context.Context, in *WeekRequest, opts ...grpc.CallOption) (*CalendarResponse, error) {
	return invoke[CalendarResponse](ctx, c, "ExportWeekCalendar", in, opts)
}

func (c *Client) RefreshDirectory(ctx context.Context, in *RefreshDirectoryRequest, opts ...grpc.CallOption) (*RefreshDirectoryResponse, error) {
	return invoke[RefreshDirectoryResponse](ctx, c, "RefreshDirectory", in, opts)
}
