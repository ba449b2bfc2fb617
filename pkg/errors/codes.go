package errors

import (
	grpccodes "google.golang.org/grpc/codes"
)

// Error codes are stable: transports and clients key off the numeric value,
// not the message.
var (
	// INVALID_INPUT covers non-positive prices or amounts, empty identities
	// and malformed share percentages.
	INVALID_INPUT = Code{
		Code:     100,
		Name:     "INVALID_INPUT",
		GrpcCode: grpccodes.InvalidArgument,
	}

	// UNAUTHORIZED is returned when the caller is not the seller, buyer,
	// administrator or settlement coordinator the operation requires.
	UNAUTHORIZED = Code{
		Code:     101,
		Name:     "UNAUTHORIZED",
		GrpcCode: grpccodes.PermissionDenied,
	}

	// INVALID_STATE is returned when the target is not listed, not active,
	// already resolved or the escrow is already complete.
	INVALID_STATE = Code{
		Code:     102,
		Name:     "INVALID_STATE",
		GrpcCode: grpccodes.FailedPrecondition,
	}

	// EXPIRED is returned when the offer expiration has passed.
	EXPIRED = Code{
		Code:     103,
		Name:     "EXPIRED",
		GrpcCode: grpccodes.DeadlineExceeded,
	}

	// TRANSFER_FAILED is returned when an external fund or asset transfer
	// collaborator reported failure. The whole operation is rolled back.
	TRANSFER_FAILED = Code{
		Code:     104,
		Name:     "TRANSFER_FAILED",
		GrpcCode: grpccodes.Aborted,
	}

	NOT_FOUND = Code{
		Code:     105,
		Name:     "NOT_FOUND",
		GrpcCode: grpccodes.NotFound,
	}

	INTERNAL_ERROR = Code{
		Code:     500,
		Name:     "INTERNAL_ERROR",
		GrpcCode: grpccodes.Internal,
	}
)
