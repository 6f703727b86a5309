package domain

// AllowedPageSizes 列表接口只接受这几个 limit
var AllowedPageSizes = []int{5, 10, 30}

const DefaultPageSize = 10

type PageRequest struct {
	Limit int `form:"limit" json:"limit"`
	Page  int `form:"page" json:"page"`
}

// WithDefaults 未传参数时 limit=10, page=1
func (p PageRequest) WithDefaults() PageRequest {
	if p.Limit == 0 {
		p.Limit = DefaultPageSize
	}
	if p.Page == 0 {
		p.Page = 1
	}
	return p
}

func (p PageRequest) Validate() error {
	ok := false
	for _, n := range AllowedPageSizes {
		if p.Limit == n {
			ok = true
			break
		}
	}
	if !ok {
		return Validation("invalid limit %d: use 5, 10 or 30", p.Limit)
	}
	if p.Page < 1 {
		return Validation("page must be greater than 0")
	}
	return nil
}

func (p PageRequest) Offset() int { return (p.Page - 1) * p.Limit }

type Page struct {
	TotalUsers  int64  `json:"totalUsers"`
	TotalPages  int64  `json:"totalPages"`
	CurrentPage int    `json:"currentPage"`
	Users       []User `json:"users"`
}

func NewPage(req PageRequest, total int64, users []User) Page {
	if users == nil {
		users = []User{}
	}
	pages := (total + int64(req.Limit) - 1) / int64(req.Limit)
	return Page{TotalUsers: total, TotalPages: pages, CurrentPage: req.Page, Users: users}
}
