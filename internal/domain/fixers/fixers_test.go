package fixers_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdidvp/patchgate/internal/adapters/outbound/fsaccess"
	"github.com/abdidvp/patchgate/internal/adapters/outbound/jsparser"
	"github.com/abdidvp/patchgate/internal/domain"
	"github.com/abdidvp/patchgate/internal/domain/fixers"
	"github.com/abdidvp/patchgate/internal/domain/synth"
)

var (
	_ domain.FixModule = (*fixers.SilentFailure)(nil)
	_ domain.FixModule = (*fixers.EnvVar)(nil)
	_ domain.FixModule = (*fixers.AuthGap)(nil)
	_ domain.FixModule = (*fixers.GhostRoute)(nil)
)

func fixContext(files map[string]string, tp *domain.Truthpack) *domain.FixContext {
	return &domain.FixContext{ProjectRoot: "/project", Truthpack: tp, Files: fsaccess.NewMemory(files)}
}

func apply(t *testing.T, p *domain.Patch) string {
	t.Helper()
	require.NotNil(t, p)
	if p.IsReplacement() {
		return p.NewContent
	}
	out, err := domain.ApplyHunks(p.OriginalContent, p.Hunks)
	require.NoError(t, err)
	assert.Equal(t, out, p.NewContent)
	return out
}

// --- Registry ---

func TestDefault_RegistersBuiltinsInOrder(t *testing.T) {
	r := fixers.Default(jsparser.New())
	var ids []string
	for _, m := range r.Modules() {
		ids = append(ids, m.ID())
	}
	assert.Equal(t, domain.ValidModuleIDs, ids)
}

func TestRegister_RejectsDuplicateID(t *testing.T) {
	r := fixers.NewRegistry()
	require.NoError(t, r.Register(fixers.NewEnvVar(jsparser.New())))
	assert.Error(t, r.Register(fixers.NewEnvVar(jsparser.New())))
}

func TestModuleFor(t *testing.T) {
	r := fixers.Default(jsparser.New())

	m, ok := r.ModuleFor(domain.Issue{Type: domain.IssueSilentFailure, FilePath: "a.ts", Line: 3})
	require.True(t, ok)
	assert.Equal(t, domain.ModuleSilentFailure, m.ID())

	m, ok = r.ModuleFor(domain.Issue{Type: domain.IssueGhostEnv, Metadata: map[string]string{"name": "DB_URL"}})
	require.True(t, ok)
	assert.Equal(t, domain.ModuleEnvVar, m.ID())

	_, ok = r.ModuleFor(domain.Issue{Type: domain.IssueSilentFailure, FilePath: "main.go"})
	assert.False(t, ok, "unsupported language")

	_, ok = r.ModuleFor(domain.Issue{Type: domain.IssueGhostImport, FilePath: "a.ts"})
	assert.False(t, ok, "no module for ghost-import")
}

func TestWithout(t *testing.T) {
	r := fixers.Default(jsparser.New()).Without(domain.ModuleEnvVar)
	assert.Len(t, r.Modules(), 3)
	_, ok := r.ModuleFor(domain.Issue{Type: domain.IssueGhostEnv, Metadata: map[string]string{"name": "DB_URL"}})
	assert.False(t, ok)
}

// --- SilentFailure ---

func TestSilentFailure_EmptyCatch(t *testing.T) {
	src := "import { run } from './run';\n\nexport function load() {\n  try {\n    run();\n  } catch (e) {}\n}\n"
	fctx := fixContext(map[string]string{"a.ts": src}, nil)
	m := fixers.NewSilentFailure(jsparser.New())
	issue := domain.Issue{ID: "i1", Type: domain.IssueSilentFailure, FilePath: "a.ts", Line: 6}

	require.True(t, m.CanFix(issue))
	p, err := m.GenerateFix(context.Background(), issue, fctx)
	require.NoError(t, err)

	out := apply(t, p)
	assert.Contains(t, out, "  } catch (e) {\n    console.error(e);\n    throw e;\n  }\n")
	assert.Equal(t, "i1", p.IssueID)
	assert.Equal(t, domain.ModuleSilentFailure, p.ModuleID)
	assert.Equal(t, 0.9, p.Confidence)
	assert.False(t, p.ManualReview)
}

func TestSilentFailure_FixesEveryPatternInFile(t *testing.T) {
	src := "try {\n  a();\n} catch (e) {}\nload().catch(() => {});\n"
	fctx := fixContext(map[string]string{"a.js": src}, nil)
	m := fixers.NewSilentFailure(jsparser.New())

	first, err := m.GenerateFix(context.Background(), domain.Issue{ID: "1", Type: domain.IssueSilentFailure, FilePath: "a.js", Line: 3}, fctx)
	require.NoError(t, err)
	second, err := m.GenerateFix(context.Background(), domain.Issue{ID: "2", Type: domain.IssueSilentFailure, FilePath: "a.js", Line: 4}, fctx)
	require.NoError(t, err)

	require.NotNil(t, first)
	require.NotNil(t, second)
	assert.Equal(t, first.NewContent, second.NewContent)
	assert.Equal(t, 2, strings.Count(first.NewContent, "throw "))
}

func TestSilentFailure_FakeSuccessNeedsReview(t *testing.T) {
	src := "async function save() {\n  try {\n    await put();\n  } catch (e) {\n    console.log(e);\n  }\n  showSuccess();\n}\n"
	fctx := fixContext(map[string]string{"save.js": src}, nil)
	m := fixers.NewSilentFailure(jsparser.New())

	p, err := m.GenerateFix(context.Background(), domain.Issue{ID: "f", Type: domain.IssueFakeSuccess, FilePath: "save.js", Line: 7}, fctx)
	require.NoError(t, err)
	require.NotNil(t, p)

	assert.True(t, p.ManualReview)
	assert.Equal(t, domain.ConfidenceLow.Score(), p.Confidence)
	out := apply(t, p)
	assert.Contains(t, out, "// patchgate: showSuccess()")
	assert.Contains(t, out, "  showSuccess();\n}")
	assert.NotContains(t, out, "throw e;", "re-throws are a separate patch")
}

func TestSilentFailure_MarkerDoesNotLowerRethrow(t *testing.T) {
	src := "function load() {\n  try {\n    run();\n  } catch (e) {}\n}\n\n" +
		"async function save() {\n  try {\n    await put();\n  } catch (err) {\n    console.log(err);\n  }\n  showSuccess();\n}\n"
	fctx := fixContext(map[string]string{"a.js": src}, nil)
	m := fixers.NewSilentFailure(jsparser.New())

	p, err := m.GenerateFix(context.Background(), domain.Issue{ID: "s", Type: domain.IssueSilentFailure, FilePath: "a.js", Line: 4}, fctx)
	require.NoError(t, err)
	require.NotNil(t, p)

	assert.False(t, p.ManualReview)
	assert.Equal(t, 0.9, p.Confidence)
	out := apply(t, p)
	assert.Contains(t, out, "  } catch (e) {\n    console.error(e);\n    throw e;\n  }\n")
	assert.NotContains(t, out, "patchgate:")
}

func TestSilentFailure_SharedLineDefersSecondHandler(t *testing.T) {
	src := "try{a()}catch(e){} try{b()}catch(f){}\n"
	fctx := fixContext(map[string]string{"a.js": src}, nil)
	m := fixers.NewSilentFailure(jsparser.New())

	p, err := m.GenerateFix(context.Background(), domain.Issue{ID: "s", Type: domain.IssueSilentFailure, FilePath: "a.js", Line: 1}, fctx)
	require.NoError(t, err)
	require.NotNil(t, p)

	out := apply(t, p)
	assert.Equal(t, 1, strings.Count(out, "throw "))
	assert.Contains(t, p.Note, "1 handler(s) re-throw")
	assert.Contains(t, p.Note, "1 sharing a line")
}

func TestSilentFailure_DeclinesUncoveredLine(t *testing.T) {
	src := "const a = 1;\nconst b = 2;\n"
	fctx := fixContext(map[string]string{"a.js": src}, nil)

	p, err := fixers.NewSilentFailure(jsparser.New()).GenerateFix(context.Background(),
		domain.Issue{Type: domain.IssueSilentFailure, FilePath: "a.js", Line: 2}, fctx)
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestSilentFailure_DeclinesMissingFile(t *testing.T) {
	p, err := fixers.NewSilentFailure(jsparser.New()).GenerateFix(context.Background(),
		domain.Issue{Type: domain.IssueSilentFailure, FilePath: "gone.js", Line: 1}, fixContext(nil, nil))
	require.NoError(t, err)
	assert.Nil(t, p)
}

// --- EnvVar ---

func TestEnvVar_CreatesExampleFile(t *testing.T) {
	m := fixers.NewEnvVar(jsparser.New())
	issue := domain.Issue{ID: "e", Type: domain.IssueGhostEnv, Metadata: map[string]string{"name": "STRIPE_SECRET_KEY"}}

	p, err := m.GenerateFix(context.Background(), issue, fixContext(nil, nil))
	require.NoError(t, err)
	require.NotNil(t, p)

	assert.True(t, p.Create)
	assert.Equal(t, ".env.example", p.FilePath)
	assert.Contains(t, p.NewContent, "# secret")
	assert.Contains(t, p.NewContent, "STRIPE_SECRET_KEY=<REQUIRED_SECRET>\n")
}

func TestEnvVar_InsertsIntoExistingSection(t *testing.T) {
	example := "# === Database ===\n# database - Database url\nDATABASE_URL=\n\n# === Server ===\nPORT=3000\n"
	fctx := fixContext(map[string]string{".env.sample": example}, nil)
	m := fixers.NewEnvVar(jsparser.New())

	p, err := m.GenerateFix(context.Background(), domain.Issue{Type: domain.IssueGhostEnv, Message: "REDIS_HOST is read but never declared"}, fctx)
	require.NoError(t, err)
	require.NotNil(t, p)

	assert.Equal(t, ".env.sample", p.FilePath)
	want := "# === Database ===\n# database - Database url\nDATABASE_URL=\n\n# database - Redis host\nREDIS_HOST=\n\n# === Server ===\nPORT=3000\n"
	assert.Equal(t, want, apply(t, p))
}

func TestEnvVar_Idempotent(t *testing.T) {
	m := fixers.NewEnvVar(jsparser.New())
	issue := domain.Issue{Type: domain.IssueGhostEnv, Metadata: map[string]string{"name": "API_BASE_URL"}}
	files := map[string]string{".env.example": "NODE_ENV=development\n"}

	p, err := m.GenerateFix(context.Background(), issue, fixContext(files, nil))
	require.NoError(t, err)
	files[".env.example"] = apply(t, p)

	again, err := m.GenerateFix(context.Background(), issue, fixContext(files, nil))
	require.NoError(t, err)
	assert.Nil(t, again)
}

func TestEnvVar_GuardsConfigModule(t *testing.T) {
	src := "import dotenv from 'dotenv';\n\ndotenv.config();\nexport const dbUrl = process.env.DB_URL;\n"
	files := map[string]string{"src/config.ts": src}
	m := fixers.NewEnvVar(jsparser.New())
	issue := domain.Issue{Type: domain.IssueGhostEnv, FilePath: "src/config.ts", Line: 4, Metadata: map[string]string{"name": "DB_URL"}}

	p, err := m.GenerateFix(context.Background(), issue, fixContext(files, nil))
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "src/config.ts", p.FilePath)

	out := apply(t, p)
	assert.Contains(t, out, "import dotenv from 'dotenv';\n\nif (!process.env.DB_URL) {\n  throw new Error('Missing required environment variable: DB_URL');\n}\n")

	files["src/config.ts"] = out
	again, err := m.GenerateFix(context.Background(), issue, fixContext(files, nil))
	require.NoError(t, err)
	assert.Nil(t, again, "guard already present")
}

func TestEnvVar_NonConfigModuleCreatesExample(t *testing.T) {
	files := map[string]string{"src/routes/pay.ts": "const key = process.env.PAY_TOKEN;\n"}
	issue := domain.Issue{Type: domain.IssueGhostEnv, FilePath: "src/routes/pay.ts", Metadata: map[string]string{"name": "PAY_TOKEN"}}

	p, err := fixers.NewEnvVar(jsparser.New()).GenerateFix(context.Background(), issue, fixContext(files, nil))
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, ".env.example", p.FilePath)
}

func TestDescribeEnv(t *testing.T) {
	tests := []struct {
		name    string
		kind    string
		section string
		value   string
	}{
		{"STRIPE_SECRET_KEY", "secret", "Secrets", fixers.SecretPlaceholder},
		{"OPENAI_API_KEY", "secret", "Secrets", fixers.SecretPlaceholder},
		{"DATABASE_URL", "database", "Database", ""},
		{"PORT", "number", "Server", "3000"},
		{"NEXT_PUBLIC_API_URL", "string", "API", ""},
		{"SMTP_HOST", "string", "Server", ""},
		{"FEATURE_FLAGS", "string", "General", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := fixers.DescribeEnv(tt.name, nil)
			assert.Equal(t, tt.kind, e.Kind)
			assert.Equal(t, tt.section, e.Section)
			assert.Equal(t, tt.value, e.Value)
		})
	}
}

func TestDescribeEnv_TruthpackWins(t *testing.T) {
	tp := &domain.Truthpack{Env: []domain.EnvFact{{Name: "REGION", Description: "Deployment region", Category: "server", Example: "eu-west-1"}}}
	e := fixers.DescribeEnv("REGION", tp)
	assert.Equal(t, "Deployment region", e.Description)
	assert.Equal(t, "Server", e.Section)
	assert.Equal(t, "eu-west-1", e.Value)
}

func TestDescribeEnv_BlankCategoryKeepsInferredSection(t *testing.T) {
	inferred := fixers.DescribeEnv("DATABASE_URL", nil)
	tp := &domain.Truthpack{Env: []domain.EnvFact{{Name: "DATABASE_URL", Category: "   "}}}

	var e synth.EnvEntry
	require.NotPanics(t, func() { e = fixers.DescribeEnv("DATABASE_URL", tp) })
	assert.Equal(t, inferred.Section, e.Section)
	assert.NotEmpty(t, e.Section)
}

// --- AuthGap ---

func TestAuthGap_NextAuthExportHandler(t *testing.T) {
	src := "import { db } from '@/lib/db';\n\nexport async function POST(req) {\n  const body = await req.json();\n  return Response.json(await db.create(body));\n}\n"
	tp := &domain.Truthpack{Auth: domain.AuthFacts{Providers: []string{"next-auth"}}}
	files := map[string]string{"app/api/items/route.js": src}
	issue := domain.Issue{ID: "a", Type: domain.IssueAuthGap, FilePath: "app/api/items/route.js", Line: 3,
		Metadata: map[string]string{"method": "POST", "route": "/api/items"}}

	m := fixers.NewAuthGap(jsparser.New())
	p, err := m.GenerateFix(context.Background(), issue, fixContext(files, tp))
	require.NoError(t, err)

	want := "import { db } from '@/lib/db';\nimport { getServerSession } from 'next-auth';\n\nexport async function POST(req) {\n" +
		"  const session = await getServerSession();\n  if (!session) {\n    return new Response('Unauthorized', { status: 401 });\n  }\n" +
		"  const body = await req.json();\n  return Response.json(await db.create(body));\n}\n"
	assert.Equal(t, want, apply(t, p))
	assert.Equal(t, 0.7, p.Confidence)

	files["app/api/items/route.js"] = want
	again, err := m.GenerateFix(context.Background(), issue, fixContext(files, tp))
	require.NoError(t, err)
	assert.Nil(t, again, "already guarded")
}

func TestAuthGap_GuardFunction(t *testing.T) {
	src := "export function DELETE(request) {\n  return remove(request);\n}\n"
	tp := &domain.Truthpack{Auth: domain.AuthFacts{GuardFunction: "requireAdmin", GuardImport: "@/lib/auth"}}
	issue := domain.Issue{Type: domain.IssueAuthGap, FilePath: "route.ts", Line: 1}

	p, err := fixers.NewAuthGap(jsparser.New()).GenerateFix(context.Background(), issue, fixContext(map[string]string{"route.ts": src}, tp))
	require.NoError(t, err)

	want := "import { requireAdmin } from '@/lib/auth';\n\nexport function DELETE(request) {\n  requireAdmin(request);\n  return remove(request);\n}\n"
	assert.Equal(t, want, apply(t, p))
}

func TestAuthGap_ProviderNeedsAsyncHandler(t *testing.T) {
	src := "export function GET() {\n  return Response.json([]);\n}\n"
	tp := &domain.Truthpack{Auth: domain.AuthFacts{Providers: []string{"clerk"}}}

	p, err := fixers.NewAuthGap(jsparser.New()).GenerateFix(context.Background(),
		domain.Issue{Type: domain.IssueAuthGap, FilePath: "route.ts"}, fixContext(map[string]string{"route.ts": src}, tp))
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestAuthGap_RouterMiddleware(t *testing.T) {
	src := "const { requireAuth } = require('./auth');\nconst router = express.Router();\nrouter.get('/orders', listOrders);\nrouter.post('/orders', createOrder);\n"
	tp := &domain.Truthpack{Auth: domain.AuthFacts{Middleware: "requireAuth", MiddlewareImport: "./auth"}}
	issue := domain.Issue{Type: domain.IssueAuthGap, FilePath: "routes/orders.js", Line: 4,
		Metadata: map[string]string{"method": "post", "route": "/orders"}}

	p, err := fixers.NewAuthGap(jsparser.New()).GenerateFix(context.Background(), issue, fixContext(map[string]string{"routes/orders.js": src}, tp))
	require.NoError(t, err)

	want := "const { requireAuth } = require('./auth');\nconst router = express.Router();\nrouter.get('/orders', listOrders);\nrouter.post('/orders', requireAuth, createOrder);\n"
	assert.Equal(t, want, apply(t, p))
}

func TestAuthGap_DeclinesWithoutAuthFacts(t *testing.T) {
	src := "export async function GET() {\n  return Response.json([]);\n}\n"
	p, err := fixers.NewAuthGap(jsparser.New()).GenerateFix(context.Background(),
		domain.Issue{Type: domain.IssueAuthGap, FilePath: "route.ts"}, fixContext(map[string]string{"route.ts": src}, nil))
	require.NoError(t, err)
	assert.Nil(t, p)
}

// --- GhostRoute ---

func TestGhostRoute_RewritesLiteral(t *testing.T) {
	src := "export async function load() {\n  const res = await fetch(\"/api/user\");\n  return res.json();\n}\n"
	tp := &domain.Truthpack{Routes: []domain.RouteFact{{Method: "GET", Path: "/api/users"}, {Method: "GET", Path: "/api/orders"}}}
	issue := domain.Issue{Type: domain.IssueGhostRoute, FilePath: "client.js", Line: 2, Message: "fetch to unknown route '/api/user'"}

	m := fixers.NewGhostRoute(jsparser.New())
	require.True(t, m.CanFix(issue))
	p, err := m.GenerateFix(context.Background(), issue, fixContext(map[string]string{"client.js": src}, tp))
	require.NoError(t, err)

	assert.Contains(t, apply(t, p), "await fetch(\"/api/users\");")
	assert.Equal(t, 0.5, p.Confidence)
}

func TestNearestRoute(t *testing.T) {
	known := []domain.RouteFact{{Method: "GET", Path: "/api/users"}, {Method: "POST", Path: "/api/orders"}}

	got, ok := fixers.NearestRoute("/api/user", "", known)
	require.True(t, ok)
	assert.Equal(t, "/api/users", got)

	_, ok = fixers.NearestRoute("/api/order", "GET", known)
	assert.False(t, ok, "method mismatch")

	_, ok = fixers.NearestRoute("/x", "", known)
	assert.False(t, ok, "too far")

	_, ok = fixers.NearestRoute("/api/users", "", known)
	assert.False(t, ok, "exact route is not a ghost")
}
