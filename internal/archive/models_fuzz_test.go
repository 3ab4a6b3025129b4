//go:build go1.18

package archive

import "testing"

// FuzzParseName checks that parsing never panics on arbitrary input and that
// every accepted name round-trips through Filename. Archive names arrive
// from the filesystem and from API callers, so this is a trust boundary.
func FuzzParseName(f *testing.F) {
	f.Add("kyc_ori_data_Accra_Ghana.zip")
	f.Add("kyc_cln_data_Port_Harcourt_Nigeria_v2.zip")
	f.Add("kyc_settlement_population_extract_v1.zip")
	f.Add("kyc_ori_data__.zip")
	f.Add("kyc_ori_data_Accra_Ghana_v99999999999999999999.zip")
	f.Add("../kyc_ori_data_Accra_Ghana.zip")
	f.Add(string([]byte{0x00, 0x1f}))

	f.Fuzz(func(t *testing.T, input string) {
		name, err := ParseName(input)
		if err != nil {
			return
		}
		rendered := name.Filename()
		again, err2 := ParseName(rendered)
		if err2 != nil {
			t.Errorf("accepted name %q rendered to unparseable %q: %v", input, rendered, err2)
		}
		if again != name {
			t.Errorf("round-trip changed name: %v -> %v", name, again)
		}
	})
}
