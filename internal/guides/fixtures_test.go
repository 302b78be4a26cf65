package guides

const registryPage = `<!DOCTYPE html>
<html><body>
<div class="container">
  <div class="row"><h4>Hướng dẫn viên Nội địa</h4></div>
  <div class="col-lg-12">
    <img src="/uploads/hdv/146123.jpg">
    <table>
      <tr><td>Họ và tên:</td><td>  Nguyễn Văn   An </td></tr>
      <tr><td>Số thẻ:</td><td>146123456</td></tr>
      <tr><td>Nơi cấp:</td><td>Sở Du lịch Thừa Thiên Huế</td></tr>
      <tr><td>Ngày hết hạn:</td><td>12/05/2027</td></tr>
      <tr><td>Ngoại ngữ:</td><td></td></tr>
      <tr><td>Điện thoại:</td><td>0905 123 456</td></tr>
      <tr><td>Email:</td><td>an@example.com</td></tr>
    </table>
  </div>
  <div class="row"><h4>Hướng dẫn viên Quốc tế</h4></div>
  <div class="col-lg-12">
    <img src="https://cdn.huongdanvien.vn/p/246.jpg">
    <table>
      <tr><td>Họ và tên:</td><td>Trần Thị Bình</td></tr>
      <tr><td>Số thẻ:</td><td>246987654</td></tr>
      <tr><td>Ngày hết hạn:</td><td>01/01/2026</td></tr>
      <tr><td>Ngoại ngữ:</td><td>Tiếng Anh, Tiếng Pháp, ,</td></tr>
    </table>
  </div>
  <div class="col-lg-12">
    <table>
      <tr><td>Họ và tên:</td><td>Không Có Thẻ</td></tr>
      <tr><td>Số thẻ:</td><td></td></tr>
    </table>
  </div>
  <div class="col-lg-12"><p>Tổng số: 3</p></div>
</div>
</body></html>`
