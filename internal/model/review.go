package model

// DateLayout is the MM/DD/YY format review dates are stored in.
const DateLayout = "01/02/06"

// Review is one user's review of a café.
//
// Cafe and CafeID are denormalised copies of the reviewed café's name and
// numeric id, so a café page can list its reviews without a join.
type Review struct {
	ID            string `json:"id"`
	Username      string `json:"username"`
	Cafe          string `json:"cafe"`
	CafeID        int    `json:"cafe_id"`
	ImageSrc      string `json:"image_src"`
	Rating        int    `json:"rating"`
	Comment       string `json:"comment"`
	Date          string `json:"date"`
	Helpful       int    `json:"isHelpful"`
	Unhelpful     int    `json:"isUnhelpful"`
	OwnerResponse string `json:"owner_response"`
	Edited        bool   `json:"isEdited"`
}
