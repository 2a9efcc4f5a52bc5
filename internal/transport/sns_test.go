package transport

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/aws/smithy-go"

	"notifygate/internal/types"
)

// mockSNSAPI implements SNSAPI for testing.
type mockSNSAPI struct {
	publishFunc func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

func (m *mockSNSAPI) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	return m.publishFunc(ctx, params, optFns...)
}

func TestSNSSendOne_Success(t *testing.T) {
	var capturedInput *sns.PublishInput

	mock := &mockSNSAPI{
		publishFunc: func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
			capturedInput = params
			return &sns.PublishOutput{MessageId: aws.String("sns-msg-001")}, nil
		},
	}

	tr := NewSNSTransportWithAPI(mock, SNSTransportConfig{})

	msg := &types.Message{
		Channel:  types.ChannelSNS,
		BodyText: "Your code is 123456",
		SmsType:  types.SmsTypeTransactional,
	}

	if err := tr.SendOne(context.Background(), "+905325556677", msg); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	// Verify direct phone publish.
	if aws.ToString(capturedInput.PhoneNumber) != "+905325556677" {
		t.Errorf("phone = %q", aws.ToString(capturedInput.PhoneNumber))
	}
	if aws.ToString(capturedInput.Message) != "Your code is 123456" {
		t.Errorf("message = %q", aws.ToString(capturedInput.Message))
	}

	// Verify the routing class attribute.
	attr, ok := capturedInput.MessageAttributes["AWS.SNS.SMS.SMSType"]
	if !ok {
		t.Fatal("missing AWS.SNS.SMS.SMSType attribute")
	}
	if aws.ToString(attr.DataType) != "String" {
		t.Errorf("attribute data type = %q", aws.ToString(attr.DataType))
	}
	if aws.ToString(attr.StringValue) != "Transactional" {
		t.Errorf("attribute value = %q", aws.ToString(attr.StringValue))
	}
}

func TestSNSBatchPrecondition(t *testing.T) {
	tr := NewSNSTransportWithAPI(&mockSNSAPI{}, SNSTransportConfig{})

	// A routing class present passes.
	if err := tr.BatchPrecondition(&types.Message{SmsType: types.SmsTypePromotional}); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}

	// A missing routing class fails the whole batch as a caller error.
	err := tr.BatchPrecondition(&types.Message{})
	if err == nil {
		t.Fatal("expected error for missing sms type")
	}

	var appErr *types.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *types.AppError, got %T", err)
	}
	if appErr.Code != types.ErrCodeValidationMissingAttribute {
		t.Errorf("code = %s", appErr.Code)
	}
	if appErr.Message != "SMS 'type' attribute is required." {
		t.Errorf("message = %q", appErr.Message)
	}
	if appErr.HTTPStatus() != 400 {
		t.Errorf("status = %d, want 400", appErr.HTTPStatus())
	}
}

func TestSNSSendOne_ErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode types.ErrorCode
	}{
		{
			name:     "authorization error maps to auth failure",
			err:      &snstypes.AuthorizationErrorException{Message: aws.String("not authorized")},
			wantCode: types.ErrCodeTransportAuth,
		},
		{
			name: "bad credentials map to auth failure",
			err: &smithy.GenericAPIError{
				Code:    "UnrecognizedClientException",
				Message: "invalid security token",
			},
			wantCode: types.ErrCodeTransportAuth,
		},
		{
			name:     "invalid parameter maps to send rejected",
			err:      &snstypes.InvalidParameterException{Message: aws.String("bad phone")},
			wantCode: types.ErrCodeTransportSend,
		},
		{
			name:     "throttle maps to unavailable",
			err:      &snstypes.ThrottledException{Message: aws.String("slow down")},
			wantCode: types.ErrCodeTransportUnavailable,
		},
		{
			name:     "internal error maps to unavailable",
			err:      &snstypes.InternalErrorException{Message: aws.String("oops")},
			wantCode: types.ErrCodeTransportUnavailable,
		},
		{
			name:     "unmodeled error maps to unknown",
			err:      fmt.Errorf("connection reset"),
			wantCode: types.ErrCodeTransportUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockSNSAPI{
				publishFunc: func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
					return nil, tt.err
				},
			}
			tr := NewSNSTransportWithAPI(mock, SNSTransportConfig{})

			err := tr.SendOne(context.Background(), "+905325556677", &types.Message{
				BodyText: "b",
				SmsType:  types.SmsTypePromotional,
			})
			if err == nil {
				t.Fatal("expected error")
			}

			var appErr *types.AppError
			if !errors.As(err, &appErr) {
				t.Fatalf("expected *types.AppError, got %T", err)
			}
			if appErr.Code != tt.wantCode {
				t.Errorf("code = %s, want %s", appErr.Code, tt.wantCode)
			}
		})
	}
}
