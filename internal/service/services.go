package service

import (
	"io"

	"github.com/deppfellow/crud-demo/internal/app"
	"github.com/deppfellow/crud-demo/internal/repository"
)

type Services struct {
	Demo *DemoService
}

// NewService builds every service on the shared resources held by a.
// Demonstration output is written to out.
func NewService(a *app.App, repos *repository.Repositories, out io.Writer) (*Services, error) {
	demoService := NewDemoService(repos.Users, out, a.Logger, a.LoggerService.GetApplication())

	return &Services{
		Demo: demoService,
	}, nil
}
