package client

import (
	"encoding/json"
	"fmt"
	"net/url"

	"agendazap/pkg/model"
)

type ProfessionalClient struct {
	httpClient *HttpClient
}

func NewProfessionalClient(baseUrl string) *ProfessionalClient {
	return &ProfessionalClient{
		httpClient: NewHttpClient(baseUrl),
	}
}

func (c *ProfessionalClient) Create(body any) (*Response, error) {
	return c.httpClient.POST("/api/v1/professionals", body)
}

func (c *ProfessionalClient) GetAll() (*Response, error) {
	return c.httpClient.GET("/api/v1/professionals")
}

func (c *ProfessionalClient) GetByID(id string) (*Response, error) {
	path := "/api/v1/professionals/id/" + url.PathEscape(id)
	return c.httpClient.GET(path)
}

func (c *ProfessionalClient) Update(id string, body any) (*Response, error) {
	path := "/api/v1/professionals/id/" + url.PathEscape(id)
	return c.httpClient.PATCH(path, body)
}

func (c *ProfessionalClient) Delete(id string) (*Response, error) {
	path := "/api/v1/professionals/id/" + url.PathEscape(id)
	return c.httpClient.DELETE(path)
}

func (c *ProfessionalClient) Connect(id string) (*Response, error) {
	path := "/api/v1/professionals/id/" + url.PathEscape(id) + "/connect"
	return c.httpClient.GET(path)
}

func (c *ProfessionalClient) DecodeProfessional(resp *Response) (*model.Professional, error) {
	var wrapper struct {
		Data json.RawMessage `json:"data"`
	}

	if err := json.Unmarshal(resp.Body, &wrapper); err != nil {
		return nil, fmt.Errorf("could not decode professional wrapper:\n%s\n%s", string(resp.Body), err)
	}

	var professional model.Professional
	if err := json.Unmarshal(wrapper.Data, &professional); err != nil {
		return nil, fmt.Errorf("could not decode professional json:\n%s\n%s", string(resp.Body), err)
	}

	return &professional, nil
}

func (c *ProfessionalClient) DecodeProfessionals(resp *Response) ([]*model.Professional, error) {
	var wrapper struct {
		Data json.RawMessage `json:"data"`
	}

	if err := json.Unmarshal(resp.Body, &wrapper); err != nil {
		return nil, fmt.Errorf("could not decode professional list wrapper:\n%s\n%s", string(resp.Body), err)
	}

	var professionals []*model.Professional
	if err := json.Unmarshal(wrapper.Data, &professionals); err != nil {
		return nil, fmt.Errorf("could not decode professional list:\n%s\n%s", string(resp.Body), err)
	}

	return professionals, nil
}
