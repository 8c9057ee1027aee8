package httptransport

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type CategoryCheckDTO struct {
	Category string `json:"category"`
	Expected string `json:"expected"`
	Actual   string `json:"actual"`
	Delta    string `json:"delta"`
	Match    bool   `json:"match"`
}

type AuditReportDTO struct {
	HourStart     string             `json:"hour_start"`
	Domain        string             `json:"domain"`
	Checks        []CategoryCheckDTO `json:"checks"`
	ExpectedTotal string             `json:"expected_total"`
	ActualTotal   string             `json:"actual_total"`
	Passed        bool               `json:"passed"`
}

type AuditResponse struct {
	Status string         `json:"status"`
	Report AuditReportDTO `json:"report"`
}
