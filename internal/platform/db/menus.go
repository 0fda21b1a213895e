package db

// MenuSeed is one entry of the default menu catalogue. Nesting is at most
// three levels deep.
type MenuSeed struct {
	Key      string
	Name     string
	Children []MenuSeed
}

var DefaultMenus = []MenuSeed{
	{Key: "dashboard", Name: "Dashboard"},
	{Key: "employees", Name: "Employees", Children: []MenuSeed{
		{Key: "employees.directory", Name: "Directory"},
		{Key: "employees.onboarding", Name: "Onboarding", Children: []MenuSeed{
			{Key: "employees.onboarding.checklists", Name: "Checklists"},
			{Key: "employees.onboarding.documents", Name: "Documents"},
		}},
		{Key: "employees.exits", Name: "Exits"},
	}},
	{Key: "leave", Name: "Leave", Children: []MenuSeed{
		{Key: "leave.requests", Name: "Requests"},
		{Key: "leave.allocation", Name: "Allocation"},
		{Key: "leave.holidays", Name: "Holidays"},
	}},
	{Key: "payroll", Name: "Payroll", Children: []MenuSeed{
		{Key: "payroll.runs", Name: "Payroll Runs"},
		{Key: "payroll.payslips", Name: "Payslips"},
		{Key: "payroll.tax", Name: "Tax", Children: []MenuSeed{
			{Key: "payroll.tax.form16", Name: "Form 16"},
			{Key: "payroll.tax.declarations", Name: "Declarations"},
		}},
	}},
	{Key: "performance", Name: "Performance", Children: []MenuSeed{
		{Key: "performance.goals", Name: "Goals"},
		{Key: "performance.reviews", Name: "Reviews"},
	}},
	{Key: "settings", Name: "Settings", Children: []MenuSeed{
		{Key: "settings.rights", Name: "Rights Management"},
		{Key: "settings.audit", Name: "Audit Log"},
	}},
}

// Depth reports how many levels the catalogue uses.
func Depth(menus []MenuSeed) int {
	deepest := 0
	for _, m := range menus {
		if d := 1 + Depth(m.Children); d > deepest {
			deepest = d
		}
	}
	return deepest
}
