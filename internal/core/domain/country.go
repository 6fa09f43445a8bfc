package domain

type Country struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	PortugueseName string `json:"portuguese_name"`
	Code           string `json:"code"`
	BACEN          int    `json:"bacen"`
}
