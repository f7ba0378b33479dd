package grpc

// proto.go defines the pg.payment.v1.PaymentService server interface, messages
// and service descriptor by hand. Messages travel with the json codec.

import (
	"context"

	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const serviceName = "pg.payment.v1.PaymentService"

type CreatePaymentRequest struct {
	PartnerID   int64  `json:"partner_id"`
	Amount      string `json:"amount"`
	CardNumber  string `json:"card_number,omitempty"`
	BirthDate   string `json:"birth_date,omitempty"`
	Expiry      string `json:"expiry,omitempty"`
	Password    string `json:"password,omitempty"`
	CardBin     string `json:"card_bin,omitempty"`
	CardLast4   string `json:"card_last4,omitempty"`
	ProductName string `json:"product_name,omitempty"`
}

type Payment struct {
	ID             int64  `json:"id"`
	PartnerID      int64  `json:"partner_id"`
	Amount         string `json:"amount"`
	AppliedFeeRate string `json:"applied_fee_rate"`
	FeeAmount      string `json:"fee_amount"`
	NetAmount      string `json:"net_amount"`
	CardLast4      string `json:"card_last4,omitempty"`
	ApprovalCode   string `json:"approval_code"`
	// ApprovedAt and CreatedAt are RFC 3339 in UTC.
	ApprovedAt string `json:"approved_at"`
	Status     string `json:"status"`
	CreatedAt  string `json:"created_at"`
}

type CreatePaymentResponse struct {
	Payment *Payment `json:"payment"`
}

type QueryPaymentsRequest struct {
	PartnerID *int64 `json:"partner_id,omitempty"`
	Status    string `json:"status,omitempty"`
	// From and To are RFC 3339, inclusive.
	From   string `json:"from,omitempty"`
	To     string `json:"to,omitempty"`
	Cursor string `json:"cursor,omitempty"`
	Limit  int32  `json:"limit,omitempty"`
}

type Summary struct {
	Count          int64  `json:"count"`
	TotalAmount    string `json:"total_amount"`
	TotalNetAmount string `json:"total_net_amount"`
}

type QueryPaymentsResponse struct {
	Items      []*Payment `json:"items"`
	Summary    *Summary   `json:"summary"`
	NextCursor string     `json:"next_cursor,omitempty"`
	HasNext    bool       `json:"has_next"`
}

type GetPaymentRequest struct {
	ID int64 `json:"id"`
}

type GetPaymentResponse struct {
	Payment *Payment `json:"payment"`
}

// PaymentServiceServer is the server API for PaymentService.
type PaymentServiceServer interface {
	CreatePayment(context.Context, *CreatePaymentRequest) (*CreatePaymentResponse, error)
	QueryPayments(context.Context, *QueryPaymentsRequest) (*QueryPaymentsResponse, error)
	GetPayment(context.Context, *GetPaymentRequest) (*GetPaymentResponse, error)
	mustEmbedUnimplementedPaymentServiceServer()
}

// UnimplementedPaymentServiceServer provides forward-compatible default implementations.
type UnimplementedPaymentServiceServer struct{}

func (UnimplementedPaymentServiceServer) CreatePayment(context.Context, *CreatePaymentRequest) (*CreatePaymentResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method CreatePayment not implemented")
}
func (UnimplementedPaymentServiceServer) QueryPayments(context.Context, *QueryPaymentsRequest) (*QueryPaymentsResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method QueryPayments not implemented")
}
func (UnimplementedPaymentServiceServer) GetPayment(context.Context, *GetPaymentRequest) (*GetPaymentResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method GetPayment not implemented")
}
func (UnimplementedPaymentServiceServer) mustEmbedUnimplementedPaymentServiceServer() {}

// RegisterPaymentServiceServer registers srv with the gRPC server.
func RegisterPaymentServiceServer(s grpclib.ServiceRegistrar, srv PaymentServiceServer) {
	s.RegisterService(&paymentServiceDesc, srv)
}

var paymentServiceDesc = grpclib.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*PaymentServiceServer)(nil),
	Methods: []grpclib.MethodDesc{
		{MethodName: "CreatePayment", Handler: unaryHandler("CreatePayment", PaymentServiceServer.CreatePayment)},
		{MethodName: "QueryPayments", Handler: unaryHandler("QueryPayments", PaymentServiceServer.QueryPayments)},
		{MethodName: "GetPayment", Handler: unaryHandler("GetPayment", PaymentServiceServer.GetPayment)},
	},
	Streams: []grpclib.StreamDesc{},
}

// unaryHandler adapts a typed server method to the descriptor's handler signature.
func unaryHandler[Req, Resp any](method string, call func(PaymentServiceServer, context.Context, *Req) (*Resp, error)) grpclib.MethodHandler {
	fullMethod := "/" + serviceName + "/" + method
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpclib.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(PaymentServiceServer), ctx, in)
		}
		info := &grpclib.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(PaymentServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}
