package usecases

import "github.com/iwtcode/ct400Adapter/internal/interfaces"

// NewUsecases - конструктор для агрегатора use cases
func NewUsecases(
	ct400Svc interfaces.CT400Service,
) interfaces.Usecases {
	return NewUsecase(ct400Svc)
}
