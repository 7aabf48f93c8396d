package types_test

import (
	"encoding/json"
	"testing"

	types "github.com/okian/wastewise/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestEnvelope(t *testing.T) {
	Convey("Given a success envelope", t, func() {
		env := types.Success([]int{1, 2})

		Convey("Then it should encode status and data", func() {
			b, err := json.Marshal(env)
			So(err, ShouldBeNil)
			So(string(b), ShouldEqual, `{"status":"success","data":[1,2]}`)
		})
	})

	Convey("Given a duplicate envelope without data", t, func() {
		env := types.Envelope[any]{Status: types.StatusDuplicate}

		Convey("Then data should be null", func() {
			b, err := json.Marshal(env)
			So(err, ShouldBeNil)
			So(string(b), ShouldEqual, `{"status":"duplicate","data":null}`)
		})
	})
}
