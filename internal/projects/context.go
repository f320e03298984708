package projects

import "context"

type contextKey string

const projectCtxKey contextKey = "project"

func SetProjectInContext(ctx context.Context, p *Project) context.Context {
	return context.WithValue(ctx, projectCtxKey, p)
}

func GetProjectFromContext(ctx context.Context) *Project {
	p, _ := ctx.Value(projectCtxKey).(*Project)
	return p
}
