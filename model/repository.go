package model

type GithubRepository struct {
	FullName   string `json:"fullName"`
	Owner      string `json:"owner"`
	Repository string `json:"repository"`
	Fork       bool   `json:"fork"`
}

type GithubRepositoryLanguages struct {
	RepositoryFullName string
	Languages          map[string]int
}
