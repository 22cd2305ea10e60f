package internal_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/frahmantamala/role-permission-api/internal"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("AppError", func() {
	It("should render field errors as the details of a validation error", func() {
		fields := internal.FieldErrors{}
		fields.Add("0.name", "The 0.name field is required.")
		appErr := internal.NewValidationError(fields)

		Expect(appErr.StatusCode).To(Equal(http.StatusUnprocessableEntity))
		Expect(appErr.Details()).To(Equal(fields))
		Expect(appErr.Error()).To(ContainSubstring("The 0.name field is required."))
	})

	It("should render reasons for not found errors", func() {
		Expect(internal.ErrRoleNotFound.Details()).To(Equal([]string{"The specified role does not exist."}))
		Expect(internal.ErrRoleNotFoundBare.Details()).To(Equal([]string{}))
		Expect(internal.ErrPermissionNotFound.StatusCode).To(Equal(http.StatusNotFound))
	})

	It("should carry the cause text for internal errors", func() {
		appErr := internal.NewInternalError("Server error.", errors.New("connection refused"))
		Expect(appErr.Details()).To(Equal([]string{"connection refused"}))
		Expect(errors.Unwrap(appErr)).To(MatchError("connection refused"))
	})

	It("should classify wrapped errors", func() {
		wrapped := fmt.Errorf("grant: %w", internal.ErrRoleNotFound)

		Expect(internal.IsNotFound(wrapped)).To(BeTrue())
		Expect(internal.IsValidation(wrapped)).To(BeFalse())
		Expect(internal.IsNotFound(errors.New("plain"))).To(BeFalse())
	})

	It("should list field keys in a stable order", func() {
		fields := internal.FieldErrors{}
		fields.Add("1.name", "b")
		fields.Add("0.name", "a")
		fields.Add("0.name", "c")

		Expect(fields.Fields()).To(Equal([]string{"0.name", "1.name"}))
		Expect(internal.NewValidationError(fields).GetDetailedMessage()).To(Equal("a; c; b"))
	})
})

var _ = Describe("Principal context", func() {
	It("should round trip the principal", func() {
		ctx := internal.ContextWithPrincipal(context.Background(), &internal.Principal{ID: "9"})

		p, ok := internal.PrincipalFromContext(ctx)
		Expect(ok).To(BeTrue())
		Expect(p.ID).To(Equal("9"))
	})

	It("should report an anonymous context", func() {
		_, ok := internal.PrincipalFromContext(context.Background())
		Expect(ok).To(BeFalse())
	})
})
