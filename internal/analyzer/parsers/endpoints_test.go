package parsers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/classmap/internal/model"
)

// Test Plan for endpoint extraction:
// - Flask routes expand their methods list and default to GET
// - FastAPI verb decorators and Django path() entries are recognized
// - Spring mappings resolve the owning class even when placed on the class
// - ASP.NET verb attributes and [Route] attributes are recognized
// - Express and NestJS routes are recognized; NestJS defaults to "/"
// - Analyzers expose extraction through ExtractEndpoints

func TestPythonEndpoints(t *testing.T) {
	t.Parallel()

	src := `from flask import Flask
app = Flask(__name__)

@app.route("/users", methods=["GET", "POST"])
def users():
    pass

@app.route("/ping")
def ping():
    pass

@app.get("/health")
def health():
    pass

urlpatterns = [
    path("orders/", views.orders),
]
`
	got := pythonEndpoints(src, "app.py")

	assert.Equal(t, []model.Endpoint{
		{Framework: "flask", Method: "GET", Path: "/users", File: "app.py"},
		{Framework: "flask", Method: "POST", Path: "/users", File: "app.py"},
		{Framework: "flask", Method: "GET", Path: "/ping", File: "app.py"},
		{Framework: "fastapi", Method: "GET", Path: "/health", File: "app.py"},
		{Framework: "django", Method: "GET", Path: "/orders/", File: "app.py"},
		{Framework: "django", Method: "POST", Path: "/orders/", File: "app.py"},
	}, got)
}

func TestSpringEndpoints(t *testing.T) {
	t.Parallel()

	src := `@RestController
@RequestMapping("/api")
public class UserController {
    @GetMapping("/users")
    public List<User> list() { return null; }

    @PostMapping(value = "/users", consumes = "application/json")
    public User create() { return null; }
}
`
	got := springEndpoints(src, "UserController.java")
	require.Len(t, got, 3)

	assert.Equal(t, model.Endpoint{Framework: "spring", Method: "GET", Path: "/api", Class: "UserController", File: "UserController.java"}, got[0])
	assert.Equal(t, "GET", got[1].Method)
	assert.Equal(t, "/users", got[1].Path)
	assert.Equal(t, "POST", got[2].Method)
	assert.Equal(t, "/users", got[2].Path)
	assert.Equal(t, "UserController", got[2].Class)
}

func TestAspnetEndpoints(t *testing.T) {
	t.Parallel()

	src := `[Route("api/orders")]
public class OrdersController : ControllerBase
{
    [HttpGet("{id}")]
    public Order Get(int id) { return null; }

    [HttpPost]
    public void Create() { }
}
`
	got := aspnetEndpoints(src, "OrdersController.cs")
	require.Len(t, got, 3)

	assert.Equal(t, "GET", got[0].Method)
	assert.Equal(t, "{id}", got[0].Path)
	assert.Equal(t, "OrdersController", got[0].Class)
	assert.Equal(t, "POST", got[1].Method)
	assert.Equal(t, "", got[1].Path)
	assert.Equal(t, model.Endpoint{Framework: "aspnet", Method: "GET", Path: "api/orders", Class: "OrdersController", File: "OrdersController.cs"}, got[2])
}

func TestNodeEndpoints(t *testing.T) {
	t.Parallel()

	src := `app.get('/items', list);
router.post("/items/:id", update);

@Controller('cats')
export class CatsController {
  @Get()
  findAll() {}

  @Post(':id')
  update() {}
}
`
	got := nodeEndpoints(src, "routes.ts")

	assert.Equal(t, []model.Endpoint{
		{Framework: "express", Method: "GET", Path: "/items", File: "routes.ts"},
		{Framework: "express", Method: "POST", Path: "/items/:id", File: "routes.ts"},
		{Framework: "nestjs", Method: "GET", Path: "/", Class: "CatsController", File: "routes.ts"},
		{Framework: "nestjs", Method: "POST", Path: ":id", Class: "CatsController", File: "routes.ts"},
	}, got)
}

func TestAnalyzer_ExtractEndpoints(t *testing.T) {
	t.Parallel()

	path := writeSource(t, "api.py", `class Api:
    @router.post("/orders")
    def create(self):
        pass
`)

	got, err := NewPythonAnalyzer().ExtractEndpoints(path)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "fastapi", got[0].Framework)
	assert.Equal(t, "POST", got[0].Method)
	assert.Equal(t, "Api", got[0].Class)
	assert.Equal(t, path, got[0].File)

	none, err := NewCppAnalyzer().ExtractEndpoints(path)
	require.NoError(t, err)
	assert.Empty(t, none)
}
