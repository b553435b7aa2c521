package transfer

// MeliItem is the fetched marketplace listing used as a duplication template.
// It only lives for the duration of one publish operation.
type MeliItem struct {
	ID                string          `json:"id"`
	Title             string          `json:"title"`
	FamilyName        string          `json:"family_name,omitempty"`
	CategoryID        string          `json:"category_id"`
	Price             float64         `json:"price"`
	CurrencyID        string          `json:"currency_id"`
	AvailableQuantity int             `json:"available_quantity"`
	SoldQuantity      int             `json:"sold_quantity,omitempty"`
	Condition         string          `json:"condition"`
	BuyingMode        string          `json:"buying_mode"`
	ListingTypeID     string          `json:"listing_type_id"`
	Pictures          []MeliPicture   `json:"pictures"`
	Attributes        []MeliAttribute `json:"attributes"`
	SaleTerms         []MeliSaleTerm  `json:"sale_terms,omitempty"`
	Shipping          MeliShipping    `json:"shipping"`
	Permalink         string          `json:"permalink,omitempty"`
	Thumbnail         string          `json:"thumbnail,omitempty"`
}

type MeliPicture struct {
	ID        string `json:"id,omitempty"`
	URL       string `json:"url,omitempty"`
	SecureURL string `json:"secure_url,omitempty"`
	Source    string `json:"source,omitempty"`
}

type MeliAttribute struct {
	ID        string               `json:"id"`
	Name      string               `json:"name,omitempty"`
	ValueID   string               `json:"value_id,omitempty"`
	ValueName string               `json:"value_name,omitempty"`
	ValueType string               `json:"value_type,omitempty"`
	Values    []MeliAttributeValue `json:"values,omitempty"`
}

type MeliAttributeValue struct {
	ID     string      `json:"id,omitempty"`
	Name   string      `json:"name,omitempty"`
	Struct *NumberUnit `json:"struct,omitempty"`
}

type NumberUnit struct {
	Number float64 `json:"number"`
	Unit   string  `json:"unit"`
}

type MeliSaleTerm struct {
	ID        string `json:"id"`
	ValueName string `json:"value_name,omitempty"`
}

type MeliShipping struct {
	Mode         string `json:"mode,omitempty"`
	LocalPickUp  bool   `json:"local_pick_up"`
	FreeShipping bool   `json:"free_shipping"`
	LogisticType string `json:"logistic_type,omitempty"`
	// Dimensions is the legacy "HxWxLcm,weight" string some listings carry.
	// It is never emitted on creation; dimensions go out as attributes.
	Dimensions string `json:"dimensions,omitempty"`
}

// ItemCreation is the payload sent to the marketplace create-listing call.
type ItemCreation struct {
	Title             string          `json:"title"`
	FamilyName        string          `json:"family_name,omitempty"`
	CategoryID        string          `json:"category_id"`
	Price             float64         `json:"price"`
	CurrencyID        string          `json:"currency_id"`
	AvailableQuantity int             `json:"available_quantity"`
	Condition         string          `json:"condition"`
	BuyingMode        string          `json:"buying_mode"`
	ListingTypeID     string          `json:"listing_type_id"`
	Pictures          []PictureSource `json:"pictures"`
	Attributes        []MeliAttribute `json:"attributes"`
	SaleTerms         []MeliSaleTerm  `json:"sale_terms,omitempty"`
	Shipping          MeliShipping    `json:"shipping"`
}

type PictureSource struct {
	Source string `json:"source"`
}

type MeliPublishResponse struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Permalink string `json:"permalink,omitempty"`
}

type MeliTokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	Scope        string `json:"scope"`
	UserID       int64  `json:"user_id"`
	RefreshToken string `json:"refresh_token"`
}

type MeliUser struct {
	ID       int64  `json:"id"`
	Nickname string `json:"nickname"`
	Email    string `json:"email,omitempty"`
}

type MeliSearchResponse struct {
	Results []string `json:"results"`
	Paging  struct {
		Total  int `json:"total"`
		Offset int `json:"offset"`
		Limit  int `json:"limit"`
	} `json:"paging"`
}

type MeliPictureUpload struct {
	ID        string `json:"id"`
	SecureURL string `json:"secure_url,omitempty"`
}
